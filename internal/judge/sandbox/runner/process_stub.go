//go:build !linux

package runner

import (
	"context"
	"fmt"
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

func runProcess(_ context.Context, _ execSpec) (procResult, error) {
	return procResult{}, fmt.Errorf("process execution is only supported on linux")
}
