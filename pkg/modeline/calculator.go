package modeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/dkoosis/sax/internal/runner"
	"github.com/dkoosis/sax/pkg/fault"
)

const (
	// DefaultTool is the timing generator shipped with xorg-server.
	DefaultTool = "cvt"

	// DefaultTimeout bounds a single tool invocation.
	DefaultTimeout = 10 * time.Second
)

// Calculator invokes the timing tool.
type Calculator struct {
	Tool       string        // default DefaultTool
	Timeout    time.Duration // default DefaultTimeout
	ScratchDir string        // parent for scratch files; default os.TempDir()
	Runner     *runner.Runner
	Logger     *slog.Logger
}

// NewCalculator returns a Calculator for tool with the given deadline.
func NewCalculator(tool string, timeout time.Duration, r *runner.Runner, logger *slog.Logger) *Calculator {
	return &Calculator{Tool: tool, Timeout: timeout, Runner: r, Logger: logger}
}

// Compute runs the tool for p and returns the parsed modeline. Failures
// are fault.KindToolInvocation, fault.KindToolTimeout when the deadline
// passed or fault.KindAborted when ctx was cancelled. No partial value is
// ever returned.
func (c *Calculator) Compute(ctx context.Context, p Params) (Spec, error) {
	args, err := p.Args()
	if err != nil {
		return Spec{}, fault.New(fault.KindToolInvocation, "compute", "", err)
	}
	tool := c.Tool
	if tool == "" {
		tool = DefaultTool
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	scratch, err := os.CreateTemp(c.ScratchDir, "sax-cvt-*.out")
	if err != nil {
		return Spec{}, fault.New(fault.KindToolInvocation, "create scratch file", c.ScratchDir, err)
	}
	defer os.Remove(scratch.Name())

	cmd := runner.Command{Name: tool, Args: args, Stdout: scratch, Timeout: timeout}
	c.logger().Debug("computing modeline", "cmd", cmd.String(), "scratch", scratch.Name())

	_, runErr := c.Runner.Run(ctx, cmd)
	closeErr := scratch.Close()
	if runErr != nil {
		switch {
		case errors.Is(runErr, runner.ErrTimeout):
			return Spec{}, fault.New(fault.KindToolTimeout, "compute", cmd.String(), runErr)
		case errors.Is(runErr, context.Canceled):
			return Spec{}, fault.New(fault.KindAborted, "compute", cmd.String(), runErr)
		}
		return Spec{}, fault.New(fault.KindToolInvocation, "compute", cmd.String(), runErr)
	}
	if closeErr != nil {
		return Spec{}, fault.New(fault.KindToolInvocation, "close scratch file", scratch.Name(), closeErr)
	}

	f, err := os.Open(scratch.Name())
	if err != nil {
		return Spec{}, fault.New(fault.KindToolInvocation, "open scratch file", scratch.Name(), err)
	}
	defer f.Close()

	spec, err := ParseOutput(f)
	if err != nil {
		return Spec{}, err
	}
	c.logger().Debug("modeline computed", "name", spec.Name, "value", spec.String())
	return spec, nil
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
