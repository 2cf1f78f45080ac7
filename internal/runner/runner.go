// Package runner executes external tools synchronously with a deadline.
//
// Each command runs in its own process group so that a timeout or an
// interrupt tears down the whole tree (xinit spawns an X server and a
// client). Signals received while a command is running are forwarded to
// the group; if the group has not exited within SignalTimeout it is killed.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// SignalTimeout is the grace period between forwarding a signal and
	// killing the process group.
	SignalTimeout = 2 * time.Second

	// DefaultTimeout applies when a Command does not set one.
	DefaultTimeout = 30 * time.Second

	// exitCodeNotFound mirrors the shell's code for a missing command.
	exitCodeNotFound = 127
)

var (
	// ErrNonZeroExit is returned when a command completes with a non-zero code.
	// Use errors.As with ExitCodeError to retrieve the code.
	ErrNonZeroExit = errors.New("command exited with non-zero code")

	// ErrTimeout is returned when a command exceeds its deadline.
	ErrTimeout = errors.New("command timed out")
)

// ExitCodeError wraps an exit code for programmatic access.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Command describes one invocation.
type Command struct {
	Name    string
	Args    []string
	Stdout  io.Writer // nil discards
	Dir     string
	Env     []string // appended to os.Environ()
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result describes a finished invocation. It is returned even when Run
// fails so callers can report duration and captured stderr.
type Result struct {
	Command  string
	ExitCode int
	Duration time.Duration
	Stderr   string
}

// Runner executes commands. The zero value is usable.
type Runner struct {
	Logger *slog.Logger
}

// New returns a Runner logging to logger.
func New(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger}
}

func (r *Runner) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Run executes c and blocks until it exits, the deadline passes, or ctx is
// cancelled.
//
// Error semantics:
//   - (result, nil) on exit code 0
//   - (result, ErrNonZeroExit wrapping ExitCodeError) on a non-zero exit
//   - (result, ErrTimeout) when the deadline passed
//   - (result, context.Canceled) when ctx was cancelled first
//   - (result, err) for infrastructure failures; see IsCommandNotFound
func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := r.logger().With("cmd", c.String())
	res := &Result{Command: c.String()}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	isolate(cmd)
	cmd.Cancel = func() error { return killGroup(cmd.Process) }
	cmd.WaitDelay = SignalTimeout

	log.Debug("starting command", "timeout", timeout)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.Duration = time.Since(start)
		res.ExitCode = exitCodeFor(err)
		log.Debug("command failed to start", "error", err)
		return res, fmt.Errorf("start %s: %w", filepath.Base(c.Name), err)
	}

	cmdDone := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, forwardedSignals...)
	handlerDone := make(chan struct{})
	go func() {
		defer func() {
			signal.Stop(sigChan)
			close(handlerDone)
		}()
		select {
		case sig := <-sigChan:
			log.Debug("forwarding signal", "signal", sig)
			if err := signalGroup(cmd.Process, sig); err != nil {
				log.Debug("signal forwarding failed", "error", err)
			}
			select {
			case <-cmdDone:
			case <-time.After(SignalTimeout):
				_ = killGroup(cmd.Process)
				cancel()
			}
		case <-cmdDone:
		}
	}()

	waitErr := cmd.Wait()
	close(cmdDone)
	<-handlerDone

	res.Duration = time.Since(start)
	res.Stderr = stderr.String()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		log.Debug("command timed out", "duration", res.Duration)
		return res, fmt.Errorf("%s after %s: %w", filepath.Base(c.Name), timeout, ErrTimeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		res.ExitCode = -1
		log.Debug("command cancelled", "duration", res.Duration)
		return res, fmt.Errorf("%s: %w", filepath.Base(c.Name), ctx.Err())
	}
	if waitErr != nil {
		res.ExitCode = exitCodeFor(waitErr)
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			log.Debug("command exited non-zero", "exit_code", res.ExitCode, "duration", res.Duration)
			return res, fmt.Errorf("%s: %w: %w", filepath.Base(c.Name), ErrNonZeroExit, ExitCodeError{Code: res.ExitCode})
		}
		return res, fmt.Errorf("%s: %w", filepath.Base(c.Name), waitErr)
	}

	log.Debug("command finished", "duration", res.Duration)
	return res, nil
}

// IsCommandNotFound reports whether err indicates the executable is missing.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	return runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory")
}

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ProcessState == nil {
			return 1
		}
		return exitStatus(exitErr.ProcessState)
	}
	if IsCommandNotFound(err) {
		return exitCodeNotFound
	}
	return 1
}
