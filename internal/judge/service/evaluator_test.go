package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sushanth-77/oj-project/internal/judge/model"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/result"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/runner"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/toolchain"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/workspace"
)

// fakeRunner echoes stdin back as stdout unless a scripted outcome is
// queued for the call.
type fakeRunner struct {
	compile    result.CompileOutcome
	compileErr error
	scripted   map[int]result.ExecOutcome

	compileCalls int
	execCalls    int
	execRequests []runner.ExecuteRequest
}

func (f *fakeRunner) Compile(_ context.Context, _ runner.CompileRequest) (result.CompileOutcome, error) {
	f.compileCalls++
	return f.compile, f.compileErr
}

func (f *fakeRunner) Execute(_ context.Context, req runner.ExecuteRequest) (result.ExecOutcome, error) {
	f.execCalls++
	f.execRequests = append(f.execRequests, req)
	if out, ok := f.scripted[f.execCalls]; ok {
		return out, nil
	}
	return result.ExecOutcome{Status: result.ExecOK, Phase: result.PhaseRun, Stdout: req.Stdin}, nil
}

func (f *fakeRunner) RunOnce(_ context.Context, _ runner.RunOnceRequest) (result.ExecOutcome, error) {
	return result.ExecOutcome{Status: result.ExecOK}, nil
}

type fakeSource struct {
	visibleIn, visibleOut string
	visibleOK             bool
	hiddenIn, hiddenOut   string
	hiddenOK              bool
}

func (s *fakeSource) Visible(_ context.Context, _ string) (string, string, bool, error) {
	return s.visibleIn, s.visibleOut, s.visibleOK, nil
}

func (s *fakeSource) Hidden(_ context.Context, _ string) (string, string, bool, error) {
	return s.hiddenIn, s.hiddenOut, s.hiddenOK, nil
}

func newTestEvaluator(t *testing.T, r runner.Runner, src *fakeSource, hiddenFactor float64) *Evaluator {
	t.Helper()
	ws, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEvaluator(r, ws, src, hiddenFactor)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func pyRequest() model.JudgeRequest {
	return model.JudgeRequest{
		SubmissionID: "sub-1",
		ProblemCode:  "sum",
		Language:     "py",
		SourceCode:   "print(input())",
	}
}

func TestJudgeAllAccepted(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"}}
	src := &fakeSource{visibleIn: "1\n2\n3", visibleOut: "1\n2\n3", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictAccepted {
		t.Fatalf("verdict = %q, message = %q", outcome.Verdict, outcome.Message)
	}
	if outcome.TotalCases != 3 || outcome.DoneCases != 3 {
		t.Errorf("cases = %d/%d, want 3/3", outcome.DoneCases, outcome.TotalCases)
	}
	if fr.compileCalls != 1 {
		t.Errorf("compile called %d times, want once", fr.compileCalls)
	}
	if fr.execCalls != 3 {
		t.Errorf("exec called %d times, want 3", fr.execCalls)
	}
}

func TestJudgeShortCircuitsOnWrongAnswer(t *testing.T) {
	fr := &fakeRunner{
		compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"},
		scripted: map[int]result.ExecOutcome{
			2: {Status: result.ExecOK, Stdout: "garbage"},
		},
	}
	src := &fakeSource{visibleIn: "1\n2\n3", visibleOut: "1\n2\n3", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictWrongAnswer {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
	if outcome.FailedCase != 2 {
		t.Errorf("failed case = %d, want 2", outcome.FailedCase)
	}
	if fr.execCalls != 2 {
		t.Errorf("exec called %d times after failure, want 2", fr.execCalls)
	}
}

func TestJudgeCompileError(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: false, ExitCode: 1, Stderr: "syntax error"}}
	src := &fakeSource{visibleIn: "1", visibleOut: "1", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictCompileError {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
	if !strings.Contains(outcome.Message, "syntax error") {
		t.Errorf("message = %q", outcome.Message)
	}
	if fr.execCalls != 0 {
		t.Errorf("exec must not run after compile error, got %d calls", fr.execCalls)
	}
}

func TestJudgeCompileTimeoutIsTLE(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: false, TimedOut: true}}
	src := &fakeSource{visibleOK: false}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictTimeLimitExceeded {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
}

func TestJudgeToolchainMissingIsInternalError(t *testing.T) {
	fr := &fakeRunner{compileErr: &toolchain.ErrUnavailable{Candidates: []string{"gcc"}}}
	src := &fakeSource{visibleOK: false}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictInternalError {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
}

func TestJudgeTimeoutCase(t *testing.T) {
	fr := &fakeRunner{
		compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"},
		scripted: map[int]result.ExecOutcome{
			1: {Status: result.ExecTimeout},
		},
	}
	src := &fakeSource{visibleIn: "1\n2", visibleOut: "1\n2", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictTimeLimitExceeded {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
	if outcome.FailedCase != 1 || fr.execCalls != 1 {
		t.Errorf("failed case = %d, exec calls = %d", outcome.FailedCase, fr.execCalls)
	}
}

func TestJudgeRuntimeError(t *testing.T) {
	fr := &fakeRunner{
		compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"},
		scripted: map[int]result.ExecOutcome{
			1: {Status: result.ExecRuntimeError, ExitCode: 139, Stderr: "segfault"},
		},
	}
	src := &fakeSource{visibleIn: "1", visibleOut: "1", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictRuntimeError {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
}

func TestJudgeNoCorpusIsAccepted(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"}}
	src := &fakeSource{}
	e := newTestEvaluator(t, fr, src, 0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictAccepted {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
	if outcome.TotalCases != 0 {
		t.Errorf("total cases = %d, want 0", outcome.TotalCases)
	}
	if fr.execCalls != 0 {
		t.Errorf("exec calls = %d, want 0", fr.execCalls)
	}
}

func TestJudgeHiddenPassAfterVisible(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"}}
	src := &fakeSource{
		visibleIn: "v1", visibleOut: "v1", visibleOK: true,
		hiddenIn: "h1\nh2", hiddenOut: "h1\nh2", hiddenOK: true,
	}
	e := newTestEvaluator(t, fr, src, 2.0)

	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictAccepted {
		t.Fatalf("verdict = %q", outcome.Verdict)
	}
	if outcome.TotalCases != 3 {
		t.Fatalf("total cases = %d, want 3", outcome.TotalCases)
	}

	inputs := make([]string, 0, len(fr.execRequests))
	for _, req := range fr.execRequests {
		inputs = append(inputs, req.Stdin)
	}
	want := []string{"v1", "h1", "h2"}
	for i := range want {
		if inputs[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", inputs, want)
		}
	}

	// Hidden cases run with a stretched time limit.
	visibleTimeout := fr.execRequests[0].Timeout
	hiddenTimeout := fr.execRequests[1].Timeout
	if hiddenTimeout != 2*visibleTimeout {
		t.Errorf("hidden timeout = %v, visible = %v", hiddenTimeout, visibleTimeout)
	}
}

func TestJudgeProgressCallback(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"}}
	src := &fakeSource{visibleIn: "1\n2\n3", visibleOut: "1\n2\n3", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	var calls []int
	_, err := e.Judge(context.Background(), pyRequest(), func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 3 || calls[0] != 1 || calls[2] != 3 {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestJudgeStagesBinaryPerCase(t *testing.T) {
	binDir := t.TempDir()
	binPath := filepath.Join(binDir, "main")
	if err := os.WriteFile(binPath, []byte("fake-elf"), 0o755); err != nil {
		t.Fatal(err)
	}

	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: binPath}}
	src := &fakeSource{visibleIn: "1\n2", visibleOut: "1\n2", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	req := pyRequest()
	req.Language = "cpp"
	outcome, err := e.Judge(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Verdict != model.VerdictAccepted {
		t.Fatalf("verdict = %q, message = %q", outcome.Verdict, outcome.Message)
	}

	seen := map[string]bool{}
	for _, execReq := range fr.execRequests {
		if execReq.BinaryPath == binPath {
			t.Errorf("case ran against the shared binary instead of a staged copy")
		}
		if seen[execReq.BinaryPath] {
			t.Errorf("two cases shared staging path %s", execReq.BinaryPath)
		}
		seen[execReq.BinaryPath] = true
	}
}

func TestJudgeUnsupportedLanguage(t *testing.T) {
	fr := &fakeRunner{}
	e := newTestEvaluator(t, fr, &fakeSource{}, 0)

	req := pyRequest()
	req.Language = "cobol"
	if _, err := e.Judge(context.Background(), req, nil); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestJudgeReportsWallTime(t *testing.T) {
	fr := &fakeRunner{compile: result.CompileOutcome{OK: true, BinaryPath: "main.py"}}
	src := &fakeSource{visibleIn: "1", visibleOut: "1", visibleOK: true}
	e := newTestEvaluator(t, fr, src, 0)

	start := time.Now()
	outcome, err := e.Judge(context.Background(), pyRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.TimeMs < 0 || outcome.TimeMs > time.Since(start).Milliseconds()+1000 {
		t.Errorf("time_ms = %d looks wrong", outcome.TimeMs)
	}
}
