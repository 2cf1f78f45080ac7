package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dkoosis/sax/internal/logging"
	"github.com/dkoosis/sax/internal/runner"
	"github.com/dkoosis/sax/pkg/fault"
)

const (
	driverLogName     = "xorg.log"
	resolutionLogName = "xrandr.log"
)

// Logs locates one capture. Dir is owned by the caller; Remove deletes it.
type Logs struct {
	Dir           string `json:"dir"`
	DriverLog     string `json:"driver_log"`
	ResolutionLog string `json:"resolution_log"`
}

// Remove deletes the capture directory.
func (l Logs) Remove() error {
	if l.Dir == "" {
		return nil
	}
	return os.RemoveAll(l.Dir)
}

// Prober starts a throwaway X server running xrandr as its only client.
// The server log names the matched drivers; xrandr's stdout lists modes.
type Prober struct {
	Xinit   string        // default "xinit"
	Xrandr  string        // default: xrandr from PATH
	Display string        // default ":9"
	Timeout time.Duration // default runner.DefaultTimeout
	TempDir string        // parent for the capture directory; default os.TempDir()
	Runner  *runner.Runner
	Logger  *slog.Logger
}

// Run captures both logs into a fresh directory. The process has exited and
// both files are closed when Run returns, so the logs are complete. A
// non-zero exit still returns the logs; a timeout, a missing binary or a
// cancelled ctx removes the capture and fails.
func (p *Prober) Run(ctx context.Context) (Logs, error) {
	xrandr := p.Xrandr
	if xrandr == "" {
		path, err := exec.LookPath("xrandr")
		if err != nil {
			return Logs{}, fault.New(fault.KindProbe, "locate xrandr", "", err)
		}
		xrandr = path
	}
	xinit := p.Xinit
	if xinit == "" {
		xinit = "xinit"
	}
	display := p.Display
	if display == "" {
		display = ":9"
	}

	dir, err := os.MkdirTemp(p.TempDir, "sax-probe-")
	if err != nil {
		return Logs{}, fault.New(fault.KindProbe, "create capture dir", p.TempDir, err)
	}
	logs := Logs{
		Dir:           dir,
		DriverLog:     filepath.Join(dir, driverLogName),
		ResolutionLog: filepath.Join(dir, resolutionLogName),
	}

	out, err := os.Create(logs.ResolutionLog)
	if err != nil {
		_ = logs.Remove()
		return Logs{}, fault.New(fault.KindProbe, "create resolution log", logs.ResolutionLog, err)
	}

	cmd := runner.Command{
		Name:    xinit,
		Args:    []string{xrandr, "--", display, "-logfile", logs.DriverLog},
		Stdout:  out,
		Timeout: p.Timeout,
	}
	log := logging.OrDiscard(p.Logger)
	log.Debug("probing display hardware", "cmd", cmd.String(), "dir", dir)
	_, runErr := p.Runner.Run(ctx, cmd)
	closeErr := out.Close()

	if closeErr != nil {
		_ = logs.Remove()
		return Logs{}, fault.New(fault.KindProbe, "close resolution log", logs.ResolutionLog, closeErr)
	}
	if runErr != nil && !errors.Is(runErr, runner.ErrNonZeroExit) {
		_ = logs.Remove()
		kind := fault.KindProbe
		switch {
		case errors.Is(runErr, runner.ErrTimeout):
			kind = fault.KindToolTimeout
		case errors.Is(runErr, context.Canceled):
			kind = fault.KindAborted
		}
		return Logs{}, fault.New(kind, "run probe", "", runErr)
	}
	if runErr != nil {
		// xinit reports the server's exit status, which is often non-zero
		// once the client finishes. Load decides what the logs are worth.
		log.Warn("probe exited non-zero, keeping logs", "error", runErr, "dir", dir)
	}
	return logs, nil
}

// Candidates is the parsed content of one capture.
type Candidates struct {
	Drivers     []DriverCandidate     `json:"drivers"`
	Resolutions []ResolutionCandidate `json:"resolutions"`
}

// Empty reports whether neither list has entries.
func (c Candidates) Empty() bool {
	return len(c.Drivers) == 0 && len(c.Resolutions) == 0
}

// Load parses both logs. A log that cannot be read leaves its list empty
// and is reported through the joined error; the other list is still
// returned.
func Load(logs Logs) (Candidates, error) {
	var c Candidates
	var errs []error

	if logs.DriverLog != "" {
		drivers, err := LoadDrivers(logs.DriverLog)
		if err != nil {
			errs = append(errs, err)
		}
		c.Drivers = drivers
	}
	if logs.ResolutionLog != "" {
		resolutions, err := LoadResolutions(logs.ResolutionLog)
		if err != nil {
			errs = append(errs, err)
		}
		c.Resolutions = resolutions
	}
	if len(errs) > 0 {
		return c, fmt.Errorf("load probe logs: %w", errors.Join(errs...))
	}
	return c, nil
}
