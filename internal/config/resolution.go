package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sources recorded in ResolvedConfig.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// Formats accepted by --format.
var validFormats = map[string]bool{"auto": true, "terminal": true, "plain": true, "json": true}

// CliFlags holds the values of command-line flags. The *Set fields record
// whether the user passed the flag explicitly.
type CliFlags struct {
	ConfigPath string

	Root       string
	TimingTool string
	Theme      string
	Format     string
	NoColor    bool
	Debug      bool

	RootSet       bool
	TimingToolSet bool
	ThemeSet      bool
	FormatSet     bool
	NoColorSet    bool
	DebugSet      bool
}

// ResolvedConfig is the configuration after applying every source.
type ResolvedConfig struct {
	Root        string
	Filter      string
	TimingTool  string
	ToolTimeout time.Duration
	Probe       ProbeSettings
	Depths      []string
	RefreshTag  string
	Theme       string
	Format      string
	NoColor     bool
	Debug       bool
	LogLevel    string
	LogFormat   string

	// Resolution metadata (for debugging)
	ConfigFile       string
	RootSource       string
	TimingToolSource string
	ThemeSource      string
	NoColorSource    string
}

// ProbeSettings are the resolved probe options.
type ProbeSettings struct {
	Xinit   string
	Xrandr  string
	Display string
	Timeout time.Duration
}

// ResolveConfig resolves configuration from the process environment.
func ResolveConfig(cli CliFlags) (*ResolvedConfig, error) {
	return Resolve(cli, os.Getenv)
}

// Resolve applies CLI flags over environment variables (read through
// getenv) over the config file over defaults, then validates the result.
func Resolve(cli CliFlags, getenv func(string) string) (*ResolvedConfig, error) {
	file, filePath, err := LoadConfig(cli.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	fileSource := SourceFile
	if filePath == "" {
		fileSource = SourceDefault
	}

	resolved := &ResolvedConfig{
		Root:        file.Root,
		Filter:      file.EffectiveFilter(),
		TimingTool:  file.TimingTool,
		ToolTimeout: time.Duration(file.ToolTimeout),
		Probe: ProbeSettings{
			Xinit:   file.Probe.Xinit,
			Xrandr:  file.Probe.Xrandr,
			Display: file.Probe.Display,
			Timeout: time.Duration(file.Probe.Timeout),
		},
		Depths:     file.Depths,
		RefreshTag: file.RefreshTag,
		Theme:      file.Theme,
		Format:     file.Format,
		NoColor:    file.NoColor,
		Debug:      file.Debug,
		LogLevel:   file.LogLevel,
		LogFormat:  file.LogFormat,

		ConfigFile:       filePath,
		RootSource:       fileSource,
		TimingToolSource: fileSource,
		ThemeSource:      fileSource,
		NoColorSource:    fileSource,
	}

	resolveString(&resolved.Root, &resolved.RootSource, cli.Root, cli.RootSet, getenv("SAX_ROOT"))
	resolveString(&resolved.TimingTool, &resolved.TimingToolSource, cli.TimingTool, cli.TimingToolSet, getenv("SAX_TIMING_TOOL"))
	resolveString(&resolved.Theme, &resolved.ThemeSource, cli.Theme, cli.ThemeSet, getenv("SAX_THEME"))

	switch {
	case cli.NoColorSet:
		resolved.NoColor, resolved.NoColorSource = cli.NoColor, SourceCLI
	case getenv("NO_COLOR") != "":
		// no-color.org: any non-empty value disables colour.
		resolved.NoColor, resolved.NoColorSource = true, SourceEnv
	}

	if cli.DebugSet {
		resolved.Debug = cli.Debug
	} else if v := getenv("SAX_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		resolved.Debug = err != nil || b
	}
	if resolved.Debug {
		resolved.LogLevel = "debug"
	}

	if cli.FormatSet {
		resolved.Format = cli.Format
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

func resolveString(dst, source *string, cli string, cliSet bool, env string) {
	switch {
	case cliSet:
		*dst, *source = cli, SourceCLI
	case env != "":
		*dst, *source = env, SourceEnv
	}
}

// validateResolvedConfig returns every invalid setting.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	var errs []error
	if cfg.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if !strings.HasPrefix(cfg.Filter, "/") {
		errs = append(errs, fmt.Errorf("filter %q must be an absolute pattern", cfg.Filter))
	}
	if cfg.TimingTool == "" {
		errs = append(errs, errors.New("timing_tool must not be empty"))
	}
	if cfg.ToolTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tool_timeout must be positive, got: %s", cfg.ToolTimeout))
	}
	if cfg.Probe.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.timeout must be positive, got: %s", cfg.Probe.Timeout))
	}
	if !validFormats[cfg.Format] {
		errs = append(errs, fmt.Errorf("invalid format value: %s (must be: auto, terminal, plain, json)", cfg.Format))
	}
	for _, d := range cfg.Depths {
		if n, err := strconv.Atoi(d); err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("depth %q is not a positive integer", d))
		}
	}
	if len(cfg.Depths) == 0 {
		errs = append(errs, errors.New("depths must not be empty"))
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level value: %s", cfg.LogLevel))
	}
	return errors.Join(errs...)
}
