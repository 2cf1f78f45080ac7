package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
)

// --- sax probe ---

func (a *app) probe(ctx context.Context, args []string) int {
	fs := newFlagSet("probe", a.stderr)
	clean := fs.Bool("clean", false, "Remove the captured logs after parsing them")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	logs, err := a.prober().Run(ctx)
	if err != nil {
		return a.fail(err)
	}
	if *clean {
		defer func() {
			if err := logs.Remove(); err != nil {
				a.logger.Warn("remove probe logs", "dir", logs.Dir, "error", err)
			}
		}()
	} else {
		fmt.Fprintf(a.stderr, "driver log: %s\nresolution log: %s\n", logs.DriverLog, logs.ResolutionLog)
	}
	c, code := a.loadCandidates(logs)
	if code != exitOK {
		return code
	}
	fmt.Fprint(a.stdout, a.renderer.Candidates(c))
	return exitOK
}

func (a *app) prober() *probe.Prober {
	return &probe.Prober{
		Xinit:   a.cfg.Probe.Xinit,
		Xrandr:  a.cfg.Probe.Xrandr,
		Display: a.cfg.Probe.Display,
		Timeout: a.cfg.Probe.Timeout,
		Runner:  a.runner,
		Logger:  a.logger,
	}
}

// loadCandidates parses the logs. An unreadable log is a warning as long
// as the other one produced candidates.
func (a *app) loadCandidates(logs probe.Logs) (probe.Candidates, int) {
	c, err := probe.Load(logs)
	if err != nil {
		if c.Empty() {
			return c, a.fail(err)
		}
		a.logger.Warn("probe log incomplete", "error", err)
	}
	return c, exitOK
}

// --- sax candidates ---

func (a *app) candidates(args []string) int {
	fs := newFlagSet("candidates", a.stderr)
	var logs probe.Logs
	fs.StringVar(&logs.DriverLog, "driver-log", "", "X server log naming matched drivers")
	fs.StringVar(&logs.ResolutionLog, "resolution-log", "", "xrandr output listing modes")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if logs.DriverLog == "" && logs.ResolutionLog == "" {
		return a.usageError("candidates: need --driver-log or --resolution-log")
	}
	c, code := a.loadCandidates(logs)
	if code != exitOK {
		return code
	}
	fmt.Fprint(a.stdout, a.renderer.Candidates(c))
	return exitOK
}

// --- sax modeline ---

func (a *app) modeline(ctx context.Context, args []string) int {
	fs := newFlagSet("modeline", a.stderr)
	var p modeline.Params
	fs.IntVar(&p.Width, "width", 0, "Custom width in pixels")
	fs.IntVar(&p.Height, "height", 0, "Custom height in pixels")
	fs.IntVar(&p.Refresh, "refresh", 0, "Custom refresh rate in Hz")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	switch {
	case fs.NArg() == 1:
		p.Resolution = fs.Arg(0)
	case fs.NArg() == 0 && (p.Width != 0 || p.Height != 0 || p.Refresh != 0):
		p.Custom = true
	default:
		return a.usageError("modeline: give WxH or --width, --height and --refresh")
	}
	if _, err := p.Args(); err != nil {
		return a.usageError("modeline: %v", err)
	}

	spec, err := a.calculator().Compute(ctx, p)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprint(a.stdout, a.renderer.Modeline(spec))
	return exitOK
}

func (a *app) calculator() *modeline.Calculator {
	return modeline.NewCalculator(a.cfg.TimingTool, a.cfg.ToolTimeout, a.runner, a.logger)
}

// --- sax show ---

func (a *app) show(args []string) int {
	fs := newFlagSet("show", a.stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	sections := fs.Args()
	if len(sections) == 0 {
		for _, s := range synth.Sections {
			sections = append(sections, s.Name)
		}
	}
	for _, s := range sections {
		if !slices.ContainsFunc(synth.Sections, func(sec synth.Section) bool { return sec.Name == s }) {
			return a.usageError("show: unknown section %q", s)
		}
	}

	var entries []conftree.Entry
	err := conftree.With(a.treeOptions(), func(t *conftree.Tree) error {
		for _, s := range sections {
			found, err := t.Entries(t.Base().Child("*").Child(s))
			if err != nil {
				return err
			}
			entries = append(entries, found...)
		}
		return nil
	})
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprint(a.stdout, a.renderer.Entries(entries))
	return exitOK
}

func (a *app) treeOptions() conftree.Options {
	return conftree.Options{
		Root:   a.cfg.Root,
		Filter: a.cfg.Filter,
		Logger: a.logger,
	}
}
