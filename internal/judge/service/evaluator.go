package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Sushanth-77/oj-project/internal/judge/corpus"
	"github.com/Sushanth-77/oj-project/internal/judge/model"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/profile"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/result"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/runner"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/toolchain"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/workspace"
	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultHiddenTimeFactor = 1.5

// Judge evaluates one submission to a final verdict.
type Judge interface {
	Judge(ctx context.Context, req model.JudgeRequest, progress func(done, total int)) (model.JudgeOutcome, error)
}

// Evaluator compiles a submission once, then drives the runner across the
// visible and hidden corpus passes, short-circuiting on the first
// non-accepted case.
type Evaluator struct {
	runner           runner.Runner
	ws               *workspace.Manager
	source           corpus.Source
	hiddenTimeFactor float64
}

// NewEvaluator creates an evaluator.
func NewEvaluator(r runner.Runner, ws *workspace.Manager, source corpus.Source, hiddenTimeFactor float64) (*Evaluator, error) {
	if r == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if source == nil {
		return nil, fmt.Errorf("corpus source is required")
	}
	if hiddenTimeFactor < 1 {
		hiddenTimeFactor = defaultHiddenTimeFactor
	}
	return &Evaluator{runner: r, ws: ws, source: source, hiddenTimeFactor: hiddenTimeFactor}, nil
}

// Judge runs the full verdict state machine for one submission.
// The progress callback, when non-nil, fires after every completed case.
func (e *Evaluator) Judge(ctx context.Context, req model.JudgeRequest, progress func(done, total int)) (model.JudgeOutcome, error) {
	start := time.Now()

	lang, err := profile.ParseLanguage(req.Language)
	if err != nil {
		return model.JudgeOutcome{}, err
	}
	spec, err := profile.SpecFor(lang)
	if err != nil {
		return model.JudgeOutcome{}, err
	}

	ws, err := e.ws.Acquire("judge")
	if err != nil {
		return model.JudgeOutcome{}, fmt.Errorf("acquire workspace: %w", err)
	}
	defer func() {
		if relErr := ws.Release(); relErr != nil {
			logger.Warn(ctx, "workspace release failed",
				zap.String("workspace_id", ws.ID()),
				zap.Error(relErr),
			)
		}
	}()

	compileDir, err := ws.Subdir("compile")
	if err != nil {
		return model.JudgeOutcome{}, err
	}

	compiled, err := e.runner.Compile(ctx, runner.CompileRequest{
		SubmissionID: req.SubmissionID,
		Language:     lang,
		Source:       req.SourceCode,
		WorkDir:      compileDir,
	})
	if err != nil {
		var unavailable *toolchain.ErrUnavailable
		if errors.As(err, &unavailable) {
			return e.finish(model.JudgeOutcome{
				Verdict: model.VerdictInternalError,
				Message: unavailable.Error(),
			}, start), nil
		}
		return model.JudgeOutcome{}, err
	}
	if !compiled.OK {
		if compiled.TimedOut {
			return e.finish(model.JudgeOutcome{
				Verdict: model.VerdictTimeLimitExceeded,
				Message: "compilation timed out",
			}, start), nil
		}
		return e.finish(model.JudgeOutcome{
			Verdict: model.VerdictCompileError,
			Message: compiled.Stderr,
		}, start), nil
	}

	visible, err := e.loadPass(ctx, req.ProblemCode, false)
	if err != nil {
		return model.JudgeOutcome{}, err
	}
	hidden, err := e.loadPass(ctx, req.ProblemCode, true)
	if err != nil {
		return model.JudgeOutcome{}, err
	}

	total := len(visible) + len(hidden)
	outcome := model.JudgeOutcome{Verdict: model.VerdictAccepted, TotalCases: total}

	passes := []struct {
		cases      []corpus.TestCase
		label      string
		timeFactor float64
	}{
		{visible, "visible", 1},
		{hidden, "hidden", e.hiddenTimeFactor},
	}

	done := 0
	for _, pass := range passes {
		for _, tc := range pass.cases {
			verdict, msg, runErr := e.runCase(ctx, req.SubmissionID, spec, compiled.BinaryPath, ws, pass.label, tc, pass.timeFactor)
			if runErr != nil {
				return model.JudgeOutcome{}, runErr
			}
			done++
			outcome.DoneCases = done
			if progress != nil {
				progress(done, total)
			}
			if verdict != model.VerdictAccepted {
				outcome.Verdict = verdict
				outcome.FailedCase = done
				outcome.Message = msg
				return e.finish(outcome, start), nil
			}
		}
	}

	return e.finish(outcome, start), nil
}

// loadPass fetches and parses one corpus pass. A missing pair simply
// yields no cases.
func (e *Evaluator) loadPass(ctx context.Context, problemCode string, hidden bool) ([]corpus.TestCase, error) {
	var (
		inputs, outputs string
		ok              bool
		err             error
	)
	if hidden {
		inputs, outputs, ok, err = e.source.Hidden(ctx, problemCode)
	} else {
		inputs, outputs, ok, err = e.source.Visible(ctx, problemCode)
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus for %s: %w", problemCode, err)
	}
	if !ok {
		return nil, nil
	}
	return corpus.Parse(inputs, outputs), nil
}

// runCase executes the compiled program against one test case in a fresh
// per-case directory and classifies the outcome.
func (e *Evaluator) runCase(
	ctx context.Context,
	submissionID string,
	spec profile.Spec,
	binaryPath string,
	ws *workspace.Workspace,
	passLabel string,
	tc corpus.TestCase,
	timeFactor float64,
) (model.Verdict, string, error) {
	caseDir, err := ws.Subdir(fmt.Sprintf("case-%s-%d", passLabel, tc.Ordinal))
	if err != nil {
		return "", "", err
	}

	execReq := runner.ExecuteRequest{
		SubmissionID: submissionID,
		CaseID:       fmt.Sprintf("%s-%d", passLabel, tc.Ordinal),
		Language:     spec.ID,
		SourcePath:   binaryPath,
		WorkDir:      caseDir,
		Stdin:        tc.Input,
		Timeout:      time.Duration(float64(spec.RunTimeout) * timeFactor),
	}
	if spec.CompileEnabled {
		caseBinary := filepath.Join(caseDir, spec.BinaryFile)
		if err := copyBinary(binaryPath, caseBinary); err != nil {
			return "", "", fmt.Errorf("stage binary for case: %w", err)
		}
		execReq.BinaryPath = caseBinary
	}

	out, err := e.runner.Execute(ctx, execReq)
	if err != nil {
		return "", "", err
	}
	return classify(out, tc.Expected)
}

// classify maps one execution outcome onto a verdict.
func classify(out result.ExecOutcome, expected string) (model.Verdict, string, error) {
	switch out.Status {
	case result.ExecOK:
		if outputsMatch(out.Stdout, expected) {
			return model.VerdictAccepted, "", nil
		}
		return model.VerdictWrongAnswer, "output mismatch", nil
	case result.ExecTimeout:
		return model.VerdictTimeLimitExceeded, "time limit exceeded", nil
	case result.ExecRuntimeError:
		return model.VerdictRuntimeError, out.Stderr, nil
	case result.ExecCompileError:
		return model.VerdictCompileError, out.Stderr, nil
	case result.ExecToolchainMissing, result.ExecInternalError:
		return model.VerdictInternalError, out.Stderr, nil
	default:
		return "", "", fmt.Errorf("unknown execution status %q", out.Status)
	}
}

func (e *Evaluator) finish(outcome model.JudgeOutcome, start time.Time) model.JudgeOutcome {
	outcome.TimeMs = time.Since(start).Milliseconds()
	return outcome
}

// copyBinary stages a compiled artifact into a per-case directory,
// preserving the execute bit.
func copyBinary(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
