//go:build linux

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

type execSpec struct {
	Argv       []string
	Dir        string
	StdinPath  string
	StdoutPath string
	StderrPath string
	Timeout    time.Duration
	KillGrace  time.Duration
}

type procResult struct {
	ExitCode int
	TimedOut bool
	TimeMs   int64
}

// runProcess runs one untrusted process in its own process group with
// file-backed stdio. On timeout the whole group gets SIGTERM, then
// SIGKILL after the grace period so forked children cannot linger.
func runProcess(ctx context.Context, spec execSpec) (procResult, error) {
	if len(spec.Argv) == 0 {
		return procResult{}, fmt.Errorf("empty argv")
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}

	var toClose []*os.File
	defer func() {
		for _, f := range toClose {
			_ = f.Close()
		}
	}()

	if spec.StdinPath != "" {
		in, err := os.Open(spec.StdinPath)
		if err != nil {
			return procResult{}, fmt.Errorf("open stdin file: %w", err)
		}
		toClose = append(toClose, in)
		cmd.Stdin = in
	}
	if spec.StdoutPath != "" {
		out, err := os.Create(spec.StdoutPath)
		if err != nil {
			return procResult{}, fmt.Errorf("create stdout file: %w", err)
		}
		toClose = append(toClose, out)
		cmd.Stdout = out
	}
	if spec.StderrPath != "" {
		errFile, err := os.Create(spec.StderrPath)
		if err != nil {
			return procResult{}, fmt.Errorf("create stderr file: %w", err)
		}
		toClose = append(toClose, errFile)
		cmd.Stderr = errFile
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return procResult{}, fmt.Errorf("start process: %w", err)
	}
	pid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timer <-chan time.Time
	if spec.Timeout > 0 {
		timer = time.After(spec.Timeout)
	}

	timedOut := false
	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer:
		timedOut = true
		waitErr = killGroupAndWait(pid, spec.KillGrace, done)
	case <-ctx.Done():
		// Caller cancellation is an environment fault, not the
		// program exceeding its budget. Kill the group but report
		// the cancellation instead of a timeout.
		_ = killGroupAndWait(pid, spec.KillGrace, done)
		return procResult{TimeMs: time.Since(start).Milliseconds()}, ctx.Err()
	}

	return procResult{
		ExitCode: exitCodeFromWait(waitErr, cmd),
		TimedOut: timedOut,
		TimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// killGroupAndWait sends SIGTERM to the process group, waits up to grace
// for a clean exit, then escalates to SIGKILL.
func killGroupAndWait(pid int, grace time.Duration, done <-chan error) error {
	if pid > 0 {
		_ = syscall.Kill(-pid, syscall.SIGTERM)
	}
	if grace > 0 {
		select {
		case err := <-done:
			return err
		case <-time.After(grace):
		}
	}
	if pid > 0 {
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}
	return <-done
}

func exitCodeFromWait(err error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
