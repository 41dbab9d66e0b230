package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sushanth-77/oj-project/internal/common/cache"
	"github.com/Sushanth-77/oj-project/internal/judge/model"
	"github.com/Sushanth-77/oj-project/internal/judge/repository"
	appErr "github.com/Sushanth-77/oj-project/pkg/errors"

	"github.com/alicebob/miniredis/v2"
)

// fakeJudge resolves every submission with a fixed verdict after an
// optional gate is released.
type fakeJudge struct {
	verdict model.Verdict
	gate    chan struct{}

	mu      sync.Mutex
	order   []string
	active  int32
	maxSeen int32
}

func (f *fakeJudge) Judge(_ context.Context, req model.JudgeRequest, progress func(done, total int)) (model.JudgeOutcome, error) {
	cur := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}

	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.order = append(f.order, req.SubmissionID)
	f.mu.Unlock()

	if progress != nil {
		progress(1, 1)
	}
	return model.JudgeOutcome{Verdict: f.verdict, TotalCases: 1, DoneCases: 1}, nil
}

func newTestStatusRepo(t *testing.T) *repository.StatusRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache(mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = redisCache.Close() })
	return repository.NewStatusRepository(redisCache, time.Hour)
}

func waitForStatus(t *testing.T, d *Dispatcher, id string, want model.JudgeStatus) model.JudgeStatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := d.Status(context.Background(), id)
		if err == nil && status.Status == want {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("submission %s never reached %q", id, want)
	return model.JudgeStatusResponse{}
}

func TestDispatcherJudgesSubmission(t *testing.T) {
	repo := newTestStatusRepo(t)
	fj := &fakeJudge{verdict: model.VerdictAccepted}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1}, fj, repo, nil)
	defer d.Close()

	id, err := d.Submit(context.Background(), model.JudgeRequest{
		ProblemCode: "sum",
		Language:    "py",
		SourceCode:  "print(1)",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty submission handle")
	}

	status := waitForStatus(t, d, id, model.StatusFinished)
	if status.Outcome == nil || status.Outcome.Verdict != model.VerdictAccepted {
		t.Errorf("outcome = %+v", status.Outcome)
	}
	if status.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestDispatcherPendingBeforeWorkerPicksUp(t *testing.T) {
	repo := newTestStatusRepo(t)
	gate := make(chan struct{})
	fj := &fakeJudge{verdict: model.VerdictAccepted, gate: gate}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1}, fj, repo, nil)
	defer d.Close()

	first, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "a", Language: "py"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "b", Language: "py"})
	if err != nil {
		t.Fatal(err)
	}

	// The single worker is blocked on the first job, so the second one
	// must still be pending.
	status, err := d.Status(context.Background(), second)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != model.StatusPending {
		t.Errorf("second submission status = %q, want pending", status.Status)
	}

	close(gate)
	waitForStatus(t, d, first, model.StatusFinished)
	waitForStatus(t, d, second, model.StatusFinished)
}

func TestDispatcherFIFOOrder(t *testing.T) {
	repo := newTestStatusRepo(t)
	gate := make(chan struct{})
	fj := &fakeJudge{verdict: model.VerdictAccepted, gate: gate}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1}, fj, repo, nil)
	defer d.Close()

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		id, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	close(gate)
	for _, id := range ids {
		waitForStatus(t, d, id, model.StatusFinished)
	}

	fj.mu.Lock()
	defer fj.mu.Unlock()
	for i, id := range ids {
		if fj.order[i] != id {
			t.Fatalf("order = %v, submitted %v", fj.order, ids)
		}
	}
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	repo := newTestStatusRepo(t)
	gate := make(chan struct{})
	fj := &fakeJudge{verdict: model.VerdictAccepted, gate: gate}
	d := NewDispatcher(DispatcherConfig{PoolSize: 2}, fj, repo, nil)
	defer d.Close()

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		id, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	for _, id := range ids {
		waitForStatus(t, d, id, model.StatusFinished)
	}

	if max := atomic.LoadInt32(&fj.maxSeen); max > 2 {
		t.Errorf("observed %d concurrent judges, pool size is 2", max)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	repo := newTestStatusRepo(t)
	gate := make(chan struct{})
	fj := &fakeJudge{verdict: model.VerdictAccepted, gate: gate}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1, MaxQueue: 1}, fj, repo, nil)
	defer d.Close()
	defer close(gate)

	// Fill the single worker, then the single queue slot.
	if _, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"}); err != nil {
		t.Fatal(err)
	}

	_, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"})
	if err == nil {
		t.Fatal("expected queue-full error")
	}
	if !appErr.Is(err, appErr.JudgeQueueFull) {
		t.Errorf("error code = %d", appErr.GetCode(err))
	}
}

func TestDispatcherRejectionLeavesNoStatus(t *testing.T) {
	repo := newTestStatusRepo(t)
	gate := make(chan struct{})
	fj := &fakeJudge{verdict: model.VerdictAccepted, gate: gate}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1, MaxQueue: 1}, fj, repo, nil)
	defer d.Close()
	defer close(gate)

	if _, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"}); err != nil {
		t.Fatal(err)
	}

	_, err := d.Submit(context.Background(), model.JudgeRequest{
		SubmissionID: "rejected-sub",
		SourceCode:   "x",
		Language:     "py",
	})
	if !appErr.Is(err, appErr.JudgeQueueFull) {
		t.Fatalf("error = %v, want queue full", err)
	}

	// A rejected submission must not be pollable as pending.
	if _, err := d.Status(context.Background(), "rejected-sub"); !appErr.Is(err, appErr.SubmissionNotFound) {
		t.Errorf("status after rejection = %v, want submission not found", err)
	}
}

func TestDispatcherRejectsEmptySource(t *testing.T) {
	repo := newTestStatusRepo(t)
	d := NewDispatcher(DispatcherConfig{PoolSize: 1}, &fakeJudge{verdict: model.VerdictAccepted}, repo, nil)
	defer d.Close()

	if _, err := d.Submit(context.Background(), model.JudgeRequest{Language: "py"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	repo := newTestStatusRepo(t)
	fj := &fakeJudge{verdict: model.VerdictAccepted}
	d := NewDispatcher(DispatcherConfig{PoolSize: 1}, fj, repo, nil)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	d.Close()

	for _, id := range ids {
		status, err := d.Status(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if status.Status != model.StatusFinished {
			t.Errorf("submission %s status = %q after close", id, status.Status)
		}
	}

	if _, err := d.Submit(context.Background(), model.JudgeRequest{SourceCode: "x", Language: "py"}); err == nil {
		t.Error("submit after close must fail")
	}
}
