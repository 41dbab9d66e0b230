package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultProbeTimeout = 5 * time.Second

// ErrUnavailable is returned when no candidate toolchain binary works.
type ErrUnavailable struct {
	Candidates []string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("no usable toolchain among candidates %v", e.Candidates)
}

// Resolver finds a working toolchain binary from a candidate list.
type Resolver interface {
	// Resolve probes candidates in order and returns the first one that
	// answers probeArg within the probe timeout. Every call probes fresh;
	// results are never memoized so environment changes take effect.
	Resolve(ctx context.Context, candidates []string, probeArg string) (string, error)
}

type probingResolver struct {
	probeTimeout time.Duration
}

// NewResolver creates a Resolver that probes candidates by running them
// with the language's version flag.
func NewResolver(probeTimeout time.Duration) Resolver {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &probingResolver{probeTimeout: probeTimeout}
}

func (r *probingResolver) Resolve(ctx context.Context, candidates []string, probeArg string) (string, error) {
	if len(candidates) == 0 {
		return "", &ErrUnavailable{}
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if r.probe(ctx, candidate, probeArg) {
			return candidate, nil
		}
	}
	return "", &ErrUnavailable{Candidates: candidates}
}

func (r *probingResolver) probe(ctx context.Context, candidate, probeArg string) bool {
	// Bare names go through PATH lookup first so we can skip the
	// exec attempt for binaries that plainly do not exist.
	if !filepath.IsAbs(candidate) {
		if _, err := exec.LookPath(candidate); err != nil {
			return false
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	args := []string{}
	if probeArg != "" {
		args = append(args, probeArg)
	}
	cmd := exec.CommandContext(probeCtx, candidate, args...)
	if err := cmd.Run(); err != nil {
		logger.Debug(ctx, "toolchain probe failed",
			zap.String("candidate", candidate),
			zap.Error(err),
		)
		return false
	}
	return true
}
