package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/picker"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
)

type applyFlags struct {
	sel         synth.Selection
	hsync       string
	vrefresh    string
	logs        probe.Logs
	probe       bool
	interactive bool
}

func (a *app) apply(ctx context.Context, args []string) int {
	fs := newFlagSet("apply", a.stderr)
	var f applyFlags
	fs.StringVar(&f.sel.Driver, "driver", "", "Driver for the Device section")
	fs.StringVar(&f.sel.Resolution, "resolution", "", "Resolution as WxH")
	fs.StringVar(&f.sel.Depth, "depth", "", "Colour depth (default: the highest configured depth)")
	fs.BoolVar(&f.sel.Advanced, "advanced", false, "Write HorizSync and VertRefresh ranges")
	fs.StringVar(&f.hsync, "hsync", "", "Horizontal sync range in kHz, e.g. 30-60")
	fs.StringVar(&f.vrefresh, "vrefresh", "", "Vertical refresh range in Hz, e.g. 50-75")
	fs.BoolVar(&f.sel.Custom, "custom", false, "Compute the modeline from --width, --height and --refresh")
	fs.IntVar(&f.sel.Width, "width", 0, "Custom width in pixels")
	fs.IntVar(&f.sel.Height, "height", 0, "Custom height in pixels")
	fs.IntVar(&f.sel.Refresh, "refresh", 0, "Custom refresh rate in Hz")
	fs.StringVar(&f.logs.DriverLog, "driver-log", "", "X server log naming matched drivers")
	fs.StringVar(&f.logs.ResolutionLog, "resolution-log", "", "xrandr output listing modes")
	fs.BoolVar(&f.probe, "probe", false, "Probe the hardware for candidates first")
	fs.BoolVar(&f.interactive, "interactive", false, "Choose driver, resolution and depth in a menu")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.usageError("apply: unexpected argument %q", fs.Arg(0))
	}

	sel, code := a.selection(ctx, f)
	if code != exitOK {
		return code
	}
	if err := sel.Validate(); err != nil {
		return a.usageError("apply: %v", err)
	}

	var report *synth.Report
	err := conftree.With(a.treeOptions(), func(t *conftree.Tree) error {
		s := synth.New(t, a.calculator(), a.logger)
		s.RefreshTag = a.cfg.RefreshTag
		var err error
		report, err = s.Run(ctx, sel)
		return err
	})
	if report != nil {
		fmt.Fprint(a.stdout, a.renderer.Report(report))
		if !report.OK() {
			a.logger.Warn("some attributes were not written", "failures", len(report.Failures))
		}
	}
	if err != nil {
		return a.fail(err)
	}
	return exitOK
}

// selection assembles the Selection from flags, probe candidates and, when
// asked for, the interactive picker.
func (a *app) selection(ctx context.Context, f applyFlags) (synth.Selection, int) {
	sel := f.sel
	var err error
	if f.hsync != "" {
		if sel.HorizSync, err = synth.ParseRange(f.hsync); err != nil {
			return sel, a.usageError("apply: --hsync: %v", err)
		}
	}
	if f.vrefresh != "" {
		if sel.VertRefresh, err = synth.ParseRange(f.vrefresh); err != nil {
			return sel, a.usageError("apply: --vrefresh: %v", err)
		}
	}

	logs := f.logs
	if f.probe {
		probed, err := a.prober().Run(ctx)
		if err != nil {
			return sel, a.fail(err)
		}
		defer func() {
			if err := probed.Remove(); err != nil {
				a.logger.Warn("remove probe logs", "dir", probed.Dir, "error", err)
			}
		}()
		logs = probed
	}
	var cands probe.Candidates
	if logs.DriverLog != "" || logs.ResolutionLog != "" {
		var code int
		if cands, code = a.loadCandidates(logs); code != exitOK {
			return sel, code
		}
	}

	if f.interactive {
		preset := picker.Result{Driver: sel.Driver, Resolution: sel.Resolution, Depth: sel.Depth}
		if sel.Custom {
			// The modeline comes from the custom geometry.
			preset.Resolution = "custom"
		}
		choice, err := picker.Run(ctx, picker.Choices{
			Drivers:     probe.DriverNames(cands.Drivers),
			Resolutions: probe.ResolutionNames(cands.Resolutions),
			Depths:      a.cfg.Depths,
		}, preset, a.stdin, a.stdout)
		if err != nil {
			return sel, a.fail(err)
		}
		sel.Driver, sel.Depth = choice.Driver, choice.Depth
		if !sel.Custom {
			sel.Resolution = choice.Resolution
		}
		return sel, exitOK
	}

	if sel.Driver == "" && len(cands.Drivers) > 0 {
		sel.Driver = cands.Drivers[0].Name
	}
	if sel.Resolution == "" && !sel.Custom && len(cands.Resolutions) > 0 {
		sel.Resolution = cands.Resolutions[0].Raw
	}
	if sel.Depth == "" {
		sel.Depth = highestDepth(a.cfg.Depths)
	}
	return sel, exitOK
}

// highestDepth returns the largest configured depth. Depths are validated
// as positive integers when the config is resolved.
func highestDepth(depths []string) string {
	if len(depths) == 0 {
		return ""
	}
	return slices.MaxFunc(depths, func(x, y string) int {
		if len(x) != len(y) {
			return len(x) - len(y)
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
		return 0
	})
}
