package service

import (
	"context"
	"sync"
	"time"

	"github.com/Sushanth-77/oj-project/internal/judge/model"
	"github.com/Sushanth-77/oj-project/internal/judge/repository"
	appErr "github.com/Sushanth-77/oj-project/pkg/errors"
	"github.com/Sushanth-77/oj-project/pkg/utils/contextkey"
	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPoolSize      = 2
	defaultMaxQueue      = 1024
	defaultWorkerTimeout = 5 * time.Minute
)

// DispatcherConfig tunes the judging worker pool.
type DispatcherConfig struct {
	PoolSize      int           `yaml:"poolSize"`
	MaxQueue      int           `yaml:"maxQueue"`
	WorkerTimeout time.Duration `yaml:"workerTimeout"`
}

// Dispatcher accepts submissions, queues them FIFO, and judges them on a
// fixed pool of workers. Status snapshots are persisted on every
// transition so pollers always see current state.
type Dispatcher struct {
	cfg        DispatcherConfig
	judge      Judge
	statusRepo *repository.StatusRepository
	publisher  repository.VerdictEventPublisher

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []model.JudgeRequest
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates the dispatcher and starts its workers.
func NewDispatcher(cfg DispatcherConfig, judge Judge, statusRepo *repository.StatusRepository, publisher repository.VerdictEventPublisher) *Dispatcher {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = defaultMaxQueue
	}
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = defaultWorkerTimeout
	}
	d := &Dispatcher{
		cfg:        cfg,
		judge:      judge,
		statusRepo: statusRepo,
		publisher:  publisher,
	}
	d.cond = sync.NewCond(&d.mu)
	for i := 0; i < cfg.PoolSize; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Submit enqueues a submission for judging and returns its handle.
// The handle is the submission id, generated when the caller left it
// empty.
func (d *Dispatcher) Submit(ctx context.Context, req model.JudgeRequest) (string, error) {
	if req.SourceCode == "" {
		return "", appErr.ValidationError("source_code", "required")
	}
	if req.SubmissionID == "" {
		req.SubmissionID = uuid.NewString()
	}

	status := model.JudgeStatusResponse{
		SubmissionID: req.SubmissionID,
		Status:       model.StatusPending,
		EnqueuedAt:   time.Now(),
	}
	if err := d.statusRepo.Save(ctx, status); err != nil {
		return "", err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.discardStatus(ctx, req.SubmissionID)
		return "", appErr.New(appErr.ServiceUnavailable).WithMessage("judge dispatcher is shutting down")
	}
	if len(d.queue) >= d.cfg.MaxQueue {
		d.mu.Unlock()
		d.discardStatus(ctx, req.SubmissionID)
		return "", appErr.New(appErr.JudgeQueueFull)
	}
	d.queue = append(d.queue, req)
	d.mu.Unlock()
	d.cond.Signal()

	logger.Info(ctx, "submission enqueued",
		zap.String("submission_id", req.SubmissionID),
		zap.String("problem_code", req.ProblemCode),
		zap.String("language", req.Language),
	)
	return req.SubmissionID, nil
}

// Status returns the current status snapshot for a submission.
func (d *Dispatcher) Status(ctx context.Context, submissionID string) (model.JudgeStatusResponse, error) {
	return d.statusRepo.Get(ctx, submissionID)
}

// Close stops accepting submissions, drains the queue, and waits for all
// workers to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
	d.wg.Wait()
}

// next blocks until a request is available or the dispatcher is closed
// with an empty queue.
func (d *Dispatcher) next() (model.JudgeRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.queue) == 0 {
		return model.JudgeRequest{}, false
	}
	req := d.queue[0]
	d.queue = d.queue[1:]
	return req, true
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		req, ok := d.next()
		if !ok {
			return
		}
		d.process(id, req)
	}
}

func (d *Dispatcher) process(workerID int, req model.JudgeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.WorkerTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, contextkey.SubmissionID, req.SubmissionID)

	now := time.Now()
	status := model.JudgeStatusResponse{
		SubmissionID: req.SubmissionID,
		Status:       model.StatusRunning,
		EnqueuedAt:   now,
		StartedAt:    &now,
	}
	if prev, err := d.statusRepo.Get(ctx, req.SubmissionID); err == nil {
		status.EnqueuedAt = prev.EnqueuedAt
	}
	d.saveStatus(ctx, status)

	logger.Info(ctx, "judging started",
		zap.Int("worker", workerID),
		zap.String("problem_code", req.ProblemCode),
	)

	outcome, err := d.judge.Judge(ctx, req, func(done, total int) {
		snapshot := status
		snapshot.Progress = &model.Progress{DoneCases: done, TotalCases: total}
		d.saveStatus(ctx, snapshot)
	})

	finished := time.Now()
	status.FinishedAt = &finished
	status.Progress = nil
	if err != nil {
		status.Status = model.StatusFailed
		status.Outcome = &model.JudgeOutcome{
			Verdict: model.VerdictInternalError,
			Message: err.Error(),
		}
		logger.Error(ctx, "judging failed",
			zap.Int("worker", workerID),
			zap.Error(err),
		)
	} else {
		status.Status = model.StatusFinished
		status.Outcome = &outcome
		logger.Info(ctx, "judging finished",
			zap.Int("worker", workerID),
			zap.String("verdict", string(outcome.Verdict)),
			zap.Int("total_cases", outcome.TotalCases),
			zap.Int64("time_ms", outcome.TimeMs),
		)
	}
	d.saveStatus(ctx, status)

	if d.publisher != nil {
		if err := d.publisher.PublishFinalStatus(ctx, status); err != nil {
			logger.Warn(ctx, "publish final verdict failed", zap.Error(err))
		}
	}
}

// discardStatus removes the pending record of a rejected submission so
// pollers do not see a phantom submission that was never queued.
func (d *Dispatcher) discardStatus(ctx context.Context, submissionID string) {
	if err := d.statusRepo.Delete(ctx, submissionID); err != nil {
		logger.Warn(ctx, "discard rejected submission status failed",
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) saveStatus(ctx context.Context, status model.JudgeStatusResponse) {
	if err := d.statusRepo.Save(ctx, status); err != nil {
		logger.Warn(ctx, "save status failed",
			zap.String("submission_id", status.SubmissionID),
			zap.Error(err),
		)
	}
}
