// Package dispatch invokes the external jmp CLI on behalf of tool
// operations. The real hardware control lives in that CLI; this package is
// only responsible for side-effect-isolated invocation with lease-scoped
// environment injection and byte-transparent capture of the result.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

// LeaseEnvVar communicates the active lease id to the external executable.
const LeaseEnvVar = "JMP_LEASE"

// CommandResult captures the outcome of one external process invocation.
// A non-zero exit code is data, not an error: the dispatcher never
// reinterprets what the CLI reports.
type CommandResult struct {
	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Succeeded bool   `json:"succeeded"`
}

// Runner spawns external commands with a bounded number of concurrent
// in-flight processes.
type Runner struct {
	maxConcurrent int

	mu      sync.Mutex
	running int

	dispatchesTotal  metric.Int64Counter
	dispatchDuration metric.Float64Histogram
}

// NewRunner creates a runner allowing up to maxConcurrent simultaneous
// processes. Values below 1 are clamped to 1.
func NewRunner(maxConcurrent int) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	r := &Runner{maxConcurrent: maxConcurrent}

	meter := otel.Meter("jumpstarter-mcp/dispatch")
	var err error
	r.dispatchesTotal, err = meter.Int64Counter(
		"jmp.dispatch.total",
		metric.WithDescription("Number of external CLI invocations"),
	)
	if err != nil {
		slog.Warn("dispatch: failed to create dispatch counter", "error", err)
	}
	r.dispatchDuration, err = meter.Float64Histogram(
		"jmp.dispatch.duration",
		metric.WithDescription("Duration of external CLI invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Warn("dispatch: failed to create dispatch histogram", "error", err)
	}

	return r
}

// Run spawns executable with args, waits for it to exit, and returns the
// fully buffered result. When leaseID is non-empty the lease-scope variable
// is injected into the child environment, on top of the current process
// environment and any extraEnv. Only a failure to spawn is an error
// (DISPATCH_ERROR); the child's own exit code is passed through in the
// result. Cancelling ctx kills the child.
func (r *Runner) Run(ctx context.Context, executable string, args []string, leaseID string, extraEnv map[string]string) (*CommandResult, error) {
	if err := r.acquireSlot(); err != nil {
		return nil, err
	}
	defer r.releaseSlot()

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Env = buildEnv(leaseID, extraEnv)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("dispatch: running command", "executable", executable, "args", args, "lease_id", leaseID)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start).Seconds()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never ran: executable missing, permission
			// denied, or the context was already cancelled.
			r.record(ctx, executable, duration, true)
			return nil, &types.MCPError{
				Code:    types.ErrCodeDispatchError,
				Message: fmt.Sprintf("failed to spawn %q", executable),
				Detail:  err.Error(),
			}
		}
		result.ExitCode = exitErr.ExitCode()
	}
	result.Succeeded = result.ExitCode == 0

	r.record(ctx, executable, duration, false)
	return result, nil
}

func (r *Runner) acquireSlot() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running >= r.maxConcurrent {
		return &types.MCPError{
			Code:    types.ErrCodeDispatchLimitReached,
			Message: fmt.Sprintf("concurrent dispatch limit reached (%d)", r.maxConcurrent),
		}
	}
	r.running++
	return nil
}

func (r *Runner) releaseSlot() {
	r.mu.Lock()
	r.running--
	r.mu.Unlock()
}

func (r *Runner) record(ctx context.Context, executable string, duration float64, spawnFailed bool) {
	if r.dispatchesTotal == nil || r.dispatchDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("executable", executable),
		attribute.Bool("spawn_failed", spawnFailed),
	)
	r.dispatchesTotal.Add(ctx, 1, attrs)
	r.dispatchDuration.Record(ctx, duration, attrs)
}

// buildEnv layers the lease-scope variable and extraEnv over the current
// process environment. Extra variables are appended in sorted key order so
// the constructed environment is deterministic.
func buildEnv(leaseID string, extraEnv map[string]string) []string {
	env := os.Environ()
	if leaseID != "" {
		env = append(env, LeaseEnvVar+"="+leaseID)
	}
	if len(extraEnv) > 0 {
		keys := make([]string, 0, len(extraEnv))
		for k := range extraEnv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+extraEnv[k])
		}
	}
	return env
}
