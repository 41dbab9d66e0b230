package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Sushanth-77/oj-project/internal/common/cache"
	"github.com/Sushanth-77/oj-project/internal/judge/model"
	appErr "github.com/Sushanth-77/oj-project/pkg/errors"
)

// StatusRepository keeps one JSON snapshot per submission in the cache.
// Snapshots expire after the configured TTL so abandoned submissions age
// out without a sweeper.
type StatusRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewStatusRepository creates a repository over the given cache.
func NewStatusRepository(cacheClient cache.Cache, ttl time.Duration) *StatusRepository {
	return &StatusRepository{cache: cacheClient, ttl: ttl}
}

func statusKey(submissionID string) string {
	return "judge:status:" + submissionID
}

func isTerminal(s model.JudgeStatus) bool {
	return s == model.StatusFinished || s == model.StatusFailed
}

// Get returns the current snapshot for a submission.
func (r *StatusRepository) Get(ctx context.Context, submissionID string) (model.JudgeStatusResponse, error) {
	var snapshot model.JudgeStatusResponse
	if submissionID == "" {
		return snapshot, appErr.ValidationError("submission_id", "required")
	}
	raw, err := r.cache.Get(ctx, statusKey(submissionID))
	if err != nil {
		return snapshot, appErr.Wrapf(err, appErr.CacheError, "load status for %s", submissionID)
	}
	if raw == "" {
		return snapshot, appErr.New(appErr.SubmissionNotFound)
	}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return snapshot, appErr.Wrapf(err, appErr.CacheError, "decode status for %s", submissionID)
	}
	return snapshot, nil
}

// Save persists a snapshot. A submission that already reached a terminal
// state keeps it: a late progress write from a racing worker must not
// drag a finished submission back to running, so non-terminal snapshots
// are dropped once a terminal one is stored.
func (r *StatusRepository) Save(ctx context.Context, snapshot model.JudgeStatusResponse) error {
	if snapshot.SubmissionID == "" {
		return appErr.ValidationError("submission_id", "required")
	}
	if !isTerminal(snapshot.Status) {
		if current, err := r.Get(ctx, snapshot.SubmissionID); err == nil && isTerminal(current.Status) {
			return nil
		}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "encode status for %s", snapshot.SubmissionID)
	}
	if err := r.cache.Set(ctx, statusKey(snapshot.SubmissionID), string(data), r.ttl); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "store status for %s", snapshot.SubmissionID)
	}
	return nil
}

// Delete removes a snapshot. Used when a submission is rejected after
// its pending record was already written.
func (r *StatusRepository) Delete(ctx context.Context, submissionID string) error {
	if submissionID == "" {
		return appErr.ValidationError("submission_id", "required")
	}
	if err := r.cache.Del(ctx, statusKey(submissionID)); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "delete status for %s", submissionID)
	}
	return nil
}
