package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/profile"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/result"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/toolchain"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/workspace"
	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultOutputCapBytes int64 = 64 * 1024
	defaultKillGrace            = 5 * time.Second

	inputFileName      = "input.txt"
	outputFileName     = "output.txt"
	runtimeLogFileName = "runtime.log"
	compileLogFileName = "compile.log"
)

// CompileRequest asks for a one-time compilation of submitted source.
// The source file is written into WorkDir; for interpreted languages no
// compiler runs and BinaryPath in the outcome points at the source.
type CompileRequest struct {
	SubmissionID string
	Language     profile.Language
	Source       string
	WorkDir      string
	ExtraFlags   string
}

// ExecuteRequest runs an already-compiled program against one input.
type ExecuteRequest struct {
	SubmissionID string
	CaseID       string
	Language     profile.Language
	SourcePath   string
	BinaryPath   string
	WorkDir      string
	Stdin        string
	Timeout      time.Duration
}

// RunOnceRequest is the full compile-and-run cycle for ad-hoc execution
// of user code against a custom input.
type RunOnceRequest struct {
	SubmissionID string
	Language     profile.Language
	Source       string
	Stdin        string
	ExtraFlags   string
}

// Runner compiles and executes untrusted programs in scratch directories.
type Runner interface {
	Compile(ctx context.Context, req CompileRequest) (result.CompileOutcome, error)
	Execute(ctx context.Context, req ExecuteRequest) (result.ExecOutcome, error)
	RunOnce(ctx context.Context, req RunOnceRequest) (result.ExecOutcome, error)
}

// Config tunes runner behavior.
type Config struct {
	OutputCapBytes int64         `yaml:"outputCapBytes"`
	KillGrace      time.Duration `yaml:"killGrace"`
}

type processRunner struct {
	cfg      Config
	resolver toolchain.Resolver
	ws       *workspace.Manager
}

// New creates a process-based runner. The workspace manager is only used
// by RunOnce; Compile and Execute operate in caller-provided directories.
func New(cfg Config, resolver toolchain.Resolver, ws *workspace.Manager) (Runner, error) {
	if resolver == nil {
		return nil, fmt.Errorf("toolchain resolver is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if cfg.OutputCapBytes <= 0 {
		cfg.OutputCapBytes = defaultOutputCapBytes
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = defaultKillGrace
	}
	return &processRunner{cfg: cfg, resolver: resolver, ws: ws}, nil
}

func (r *processRunner) Compile(ctx context.Context, req CompileRequest) (result.CompileOutcome, error) {
	spec, err := profile.SpecFor(req.Language)
	if err != nil {
		return result.CompileOutcome{}, err
	}
	if req.WorkDir == "" {
		return result.CompileOutcome{}, fmt.Errorf("work dir is required")
	}

	srcPath := filepath.Join(req.WorkDir, spec.SourceFile)
	if err := os.WriteFile(srcPath, []byte(req.Source), 0o644); err != nil {
		return result.CompileOutcome{}, fmt.Errorf("write source: %w", err)
	}

	if !spec.CompileEnabled {
		return result.CompileOutcome{OK: true, BinaryPath: srcPath}, nil
	}

	tool, err := r.resolver.Resolve(ctx, spec.CompileCandidates, spec.ProbeArg)
	if err != nil {
		return result.CompileOutcome{}, err
	}

	binPath := filepath.Join(req.WorkDir, spec.BinaryFile)
	argv, err := buildCommand(spec.CompileCmdTpl, placeholders{
		Tool:       tool,
		Src:        srcPath,
		Bin:        binPath,
		Dir:        req.WorkDir,
		ExtraFlags: req.ExtraFlags,
	})
	if err != nil {
		return result.CompileOutcome{}, fmt.Errorf("build compile command: %w", err)
	}

	proc, err := runProcess(ctx, execSpec{
		Argv:       argv,
		Dir:        req.WorkDir,
		StderrPath: filepath.Join(req.WorkDir, compileLogFileName),
		Timeout:    spec.CompileTimeout,
		KillGrace:  r.cfg.KillGrace,
	})
	if err != nil {
		return result.CompileOutcome{}, fmt.Errorf("run compiler: %w", err)
	}

	stderr := readLimitedFile(filepath.Join(req.WorkDir, compileLogFileName), r.cfg.OutputCapBytes)
	outcome := result.CompileOutcome{
		OK:         !proc.TimedOut && proc.ExitCode == 0,
		TimedOut:   proc.TimedOut,
		ExitCode:   proc.ExitCode,
		Stderr:     stderr,
		TimeMs:     proc.TimeMs,
		BinaryPath: binPath,
	}
	if !outcome.OK {
		logger.Debug(ctx, "compilation failed",
			zap.String("submission_id", req.SubmissionID),
			zap.String("language", string(req.Language)),
			zap.Int("exit_code", proc.ExitCode),
			zap.Bool("timed_out", proc.TimedOut),
		)
	}
	return outcome, nil
}

func (r *processRunner) Execute(ctx context.Context, req ExecuteRequest) (result.ExecOutcome, error) {
	spec, err := profile.SpecFor(req.Language)
	if err != nil {
		return result.ExecOutcome{}, err
	}
	if req.WorkDir == "" {
		return result.ExecOutcome{}, fmt.Errorf("work dir is required")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = spec.RunTimeout
	}

	tool := ""
	if len(spec.RunCandidates) > 0 {
		tool, err = r.resolver.Resolve(ctx, spec.RunCandidates, spec.ProbeArg)
		if err != nil {
			var unavailable *toolchain.ErrUnavailable
			if errors.As(err, &unavailable) {
				return result.ExecOutcome{
					Status: result.ExecToolchainMissing,
					Phase:  result.PhaseRun,
					Stderr: unavailable.Error(),
				}, nil
			}
			return result.ExecOutcome{}, err
		}
	}

	argv, err := buildCommand(spec.RunCmdTpl, placeholders{
		Tool: tool,
		Src:  req.SourcePath,
		Bin:  req.BinaryPath,
		Dir:  req.WorkDir,
	})
	if err != nil {
		return result.ExecOutcome{}, fmt.Errorf("build run command: %w", err)
	}

	inputPath := filepath.Join(req.WorkDir, inputFileName)
	if err := os.WriteFile(inputPath, []byte(req.Stdin), 0o644); err != nil {
		return result.ExecOutcome{}, fmt.Errorf("write stdin: %w", err)
	}

	outputPath := filepath.Join(req.WorkDir, outputFileName)
	stderrPath := filepath.Join(req.WorkDir, runtimeLogFileName)

	proc, err := runProcess(ctx, execSpec{
		Argv:       argv,
		Dir:        req.WorkDir,
		StdinPath:  inputPath,
		StdoutPath: outputPath,
		StderrPath: stderrPath,
		Timeout:    timeout,
		KillGrace:  r.cfg.KillGrace,
	})
	if err != nil {
		return result.ExecOutcome{}, fmt.Errorf("run program: %w", err)
	}

	outcome := result.ExecOutcome{
		Phase:    result.PhaseRun,
		ExitCode: proc.ExitCode,
		Stdout:   readLimitedFile(outputPath, r.cfg.OutputCapBytes),
		Stderr:   readLimitedFile(stderrPath, r.cfg.OutputCapBytes),
		TimeMs:   proc.TimeMs,
	}
	switch {
	case proc.TimedOut:
		outcome.Status = result.ExecTimeout
	case proc.ExitCode != 0:
		outcome.Status = result.ExecRuntimeError
	default:
		outcome.Status = result.ExecOK
	}
	return outcome, nil
}

func (r *processRunner) RunOnce(ctx context.Context, req RunOnceRequest) (result.ExecOutcome, error) {
	ws, err := r.ws.Acquire("run")
	if err != nil {
		return result.ExecOutcome{}, fmt.Errorf("acquire workspace: %w", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logger.Warn(ctx, "workspace release failed",
				zap.String("workspace_id", ws.ID()),
				zap.Error(err),
			)
		}
	}()

	compiled, err := r.Compile(ctx, CompileRequest{
		SubmissionID: req.SubmissionID,
		Language:     req.Language,
		Source:       req.Source,
		WorkDir:      ws.Dir(),
		ExtraFlags:   req.ExtraFlags,
	})
	if err != nil {
		var unavailable *toolchain.ErrUnavailable
		if errors.As(err, &unavailable) {
			return result.ExecOutcome{
				Status: result.ExecToolchainMissing,
				Phase:  result.PhaseCompile,
				Stderr: unavailable.Error(),
			}, nil
		}
		return result.ExecOutcome{}, err
	}
	if !compiled.OK {
		status := result.ExecCompileError
		if compiled.TimedOut {
			status = result.ExecTimeout
		}
		return result.ExecOutcome{
			Status:   status,
			Phase:    result.PhaseCompile,
			ExitCode: compiled.ExitCode,
			Stderr:   compiled.Stderr,
			TimeMs:   compiled.TimeMs,
		}, nil
	}

	spec, _ := profile.SpecFor(req.Language)
	return r.Execute(ctx, ExecuteRequest{
		SubmissionID: req.SubmissionID,
		CaseID:       "custom",
		Language:     req.Language,
		SourcePath:   filepath.Join(ws.Dir(), spec.SourceFile),
		BinaryPath:   compiled.BinaryPath,
		WorkDir:      ws.Dir(),
		Stdin:        req.Stdin,
	})
}
