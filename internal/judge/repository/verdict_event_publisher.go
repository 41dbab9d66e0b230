package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sushanth-77/oj-project/internal/judge/model"
	appErr "github.com/Sushanth-77/oj-project/pkg/errors"

	"github.com/segmentio/kafka-go"
)

// VerdictEventPublisher publishes terminal-state events for async consumers.
type VerdictEventPublisher interface {
	PublishFinalStatus(ctx context.Context, status model.JudgeStatusResponse) error
	Close() error
}

// KafkaVerdictEventPublisher publishes verdict events to a Kafka topic,
// keyed by submission id so events for one submission stay ordered.
type KafkaVerdictEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaVerdictEventPublisher creates a Kafka-backed publisher.
func NewKafkaVerdictEventPublisher(brokers []string, topic string) (*KafkaVerdictEventPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaVerdictEventPublisher{writer: writer}, nil
}

// PublishFinalStatus publishes a final verdict event.
func (p *KafkaVerdictEventPublisher) PublishFinalStatus(ctx context.Context, status model.JudgeStatusResponse) error {
	if p == nil || p.writer == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("verdict publisher is not configured")
	}
	if status.SubmissionID == "" {
		return appErr.ValidationError("submission_id", "required")
	}
	event := model.VerdictEvent{
		Type:      model.VerdictEventFinal,
		Status:    status,
		CreatedAt: time.Now().Unix(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal verdict event failed: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(status.SubmissionID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return appErr.Wrapf(err, appErr.ServiceUnavailable, "publish verdict event failed")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaVerdictEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
