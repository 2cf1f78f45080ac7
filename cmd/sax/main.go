// sax writes display configuration fragments for X11.
//
// Usage:
//
//	sax probe                                  # start a throwaway X server and list candidates
//	sax candidates --driver-log F --resolution-log F
//	sax modeline 1920x1080
//	sax apply --driver radeon --resolution 1920x1080 --depth 24
//	sax apply --interactive --driver-log F --resolution-log F
//	sax show [Monitor|Device|Screen]
//
// Output modes (auto-detected):
//
//	terminal  styled output (default when stdout is a TTY)
//	plain     one fact per line (default when piped)
//	json      structured JSON for automation
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dkoosis/sax/internal/config"
	"github.com/dkoosis/sax/internal/logging"
	"github.com/dkoosis/sax/internal/runner"
	"github.com/dkoosis/sax/internal/version"
	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/render"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitAborted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries what every subcommand needs.
type app struct {
	cfg      *config.ResolvedConfig
	logger   *slog.Logger
	runner   *runner.Runner
	renderer render.Renderer
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sax", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	var cli config.CliFlags
	fs.StringVar(&cli.ConfigPath, "config", "", "Config file (default: .sax.yaml, .sax.toml or the user config dir)")
	fs.StringVar(&cli.Root, "root", config.DefaultRoot, "Filesystem root holding etc/X11/xorg.conf.d")
	fs.StringVar(&cli.TimingTool, "timing-tool", config.DefaultTimingTool, "Modeline calculator")
	fs.StringVar(&cli.Format, "format", config.DefaultFormat, "Output format: auto, terminal, plain, json")
	fs.StringVar(&cli.Theme, "theme", config.DefaultTheme, "Theme: "+strings.Join(render.ThemeNames(), ", "))
	fs.BoolVar(&cli.NoColor, "no-color", false, "Disable colour output")
	fs.BoolVar(&cli.Debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cli.RootSet = true
		case "timing-tool":
			cli.TimingToolSet = true
		case "format":
			cli.FormatSet = true
		case "theme":
			cli.ThemeSet = true
		case "no-color":
			cli.NoColorSet = true
		case "debug":
			cli.DebugSet = true
		}
	})

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return exitUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "version" {
		fmt.Fprintf(stdout, "sax %s (commit %s, built %s)\n", version.Version, version.CommitHash, version.BuildDate)
		return exitOK
	}

	cfg, err := config.ResolveConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "sax: %v\n", err)
		return exitUsage
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if cfg.ConfigFile != "" {
		logger.Debug("loaded config file", "path", cfg.ConfigFile)
	}

	renderer, err := selectRenderer(cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "sax: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		runner:   runner.New(logger),
		renderer: renderer,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
	}

	switch cmd {
	case "probe":
		return a.probe(ctx, cmdArgs)
	case "candidates":
		return a.candidates(cmdArgs)
	case "modeline":
		return a.modeline(ctx, cmdArgs)
	case "apply":
		return a.apply(ctx, cmdArgs)
	case "show":
		return a.show(cmdArgs)
	default:
		fmt.Fprintf(stderr, "sax: unknown command %q\n", cmd)
		usage(stderr, fs)
		return exitUsage
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: sax [flags] <probe|candidates|modeline|apply|show|version> [args]\n\nFlags:\n")
	fs.PrintDefaults()
}

// isTTY reports whether v is a terminal.
func isTTY(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width of w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}

func resolveFormat(format string, w io.Writer) string {
	if format != config.DefaultFormat {
		return format
	}
	if isTTY(w) {
		return render.FormatTerminal
	}
	return render.FormatPlain
}

func selectRenderer(cfg *config.ResolvedConfig, w io.Writer) (render.Renderer, error) {
	theme := render.ThemeByName(cfg.Theme)
	if cfg.NoColor {
		theme = render.MonoTheme()
	}
	return render.New(resolveFormat(cfg.Format, w), theme, termWidth(w))
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case fault.Is(err, fault.KindAborted), errors.Is(err, context.Canceled):
		return exitAborted
	default:
		return exitFailure
	}
}

// fail reports err and returns its exit code.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "sax: %v\n", err)
	return exitCode(err)
}

// usageError reports a bad invocation of a subcommand.
func (a *app) usageError(format string, args ...any) int {
	fmt.Fprintf(a.stderr, "sax: "+format+"\n", args...)
	return exitUsage
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("sax "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses subcommand flags, mapping -h to success.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return 0, true
}
