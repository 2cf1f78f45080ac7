package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Constants for default values.
const (
	DefaultRoot         = "/"
	DefaultConfDir      = "/etc/X11/xorg.conf.d"
	DefaultTimingTool   = "cvt"
	DefaultToolTimeout  = 10 * time.Second
	DefaultXinit        = "xinit"
	DefaultXrandr       = "/usr/bin/xrandr"
	DefaultDisplay      = ":9"
	DefaultProbeTimeout = 30 * time.Second
	DefaultRefreshTag   = "_60.00"
	DefaultTheme        = "default"
	DefaultFormat       = "auto"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// DefaultDepths are the colour depths offered when none are configured.
var DefaultDepths = []string{"8", "15", "16", "24"}

// Local config file names, tried in order.
var localConfigNames = []string{".sax.yaml", ".sax.yml", ".sax.toml"}

// Duration decodes from strings such as "10s" in both YAML and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalText renders the duration as "10s".
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ProbeConfig configures the throwaway X server used to probe hardware.
type ProbeConfig struct {
	Xinit   string   `yaml:"xinit" toml:"xinit"`
	Xrandr  string   `yaml:"xrandr" toml:"xrandr"`
	Display string   `yaml:"display" toml:"display"`
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// AppConfig is the content of a config file merged over the defaults.
type AppConfig struct {
	Root        string      `yaml:"root" toml:"root"`
	ConfDir     string      `yaml:"conf_dir" toml:"conf_dir"`
	Filter      string      `yaml:"filter,omitempty" toml:"filter"`
	TimingTool  string      `yaml:"timing_tool" toml:"timing_tool"`
	ToolTimeout Duration    `yaml:"tool_timeout" toml:"tool_timeout"`
	Probe       ProbeConfig `yaml:"probe" toml:"probe"`
	Depths      []string    `yaml:"depths" toml:"depths"`
	RefreshTag  string      `yaml:"refresh_tag" toml:"refresh_tag"`
	Theme       string      `yaml:"theme" toml:"theme"`
	Format      string      `yaml:"format" toml:"format"`
	NoColor     bool        `yaml:"no_color" toml:"no_color"`
	Debug       bool        `yaml:"debug" toml:"debug"`
	LogLevel    string      `yaml:"log_level" toml:"log_level"`
	LogFormat   string      `yaml:"log_format" toml:"log_format"`
}

// Defaults returns the built-in configuration.
func Defaults() *AppConfig {
	return &AppConfig{
		Root:        DefaultRoot,
		ConfDir:     DefaultConfDir,
		TimingTool:  DefaultTimingTool,
		ToolTimeout: Duration(DefaultToolTimeout),
		Probe: ProbeConfig{
			Xinit:   DefaultXinit,
			Xrandr:  DefaultXrandr,
			Display: DefaultDisplay,
			Timeout: Duration(DefaultProbeTimeout),
		},
		Depths:     append([]string(nil), DefaultDepths...),
		RefreshTag: DefaultRefreshTag,
		Theme:      DefaultTheme,
		Format:     DefaultFormat,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// EffectiveFilter returns the file glob loaded into the tree: Filter when
// set, otherwise every .conf file in ConfDir.
func (c *AppConfig) EffectiveFilter() string {
	if c.Filter != "" {
		return c.Filter
	}
	return path.Join(c.ConfDir, "*.conf")
}

// LoadFile decodes the file at p over the defaults. Keys absent from the
// file keep their default values.
func LoadFile(p string) (*AppConfig, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(p), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return cfg, nil
}

// FindConfigFile returns the config file to use, or "" when there is none.
// It checks the working directory first, then the user config directory.
func FindConfigFile() string {
	for _, name := range localConfigNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	configHome, err := os.UserConfigDir()
	// UserConfigDir may return "" or "/" in stripped-down environments.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		p := filepath.Join(configHome, "sax", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadConfig loads explicit, or the discovered config file when explicit is
// empty. With no file it returns the defaults and an empty path. An
// explicit file that does not exist is an error.
func LoadConfig(explicit string) (*AppConfig, string, error) {
	p := explicit
	if p == "" {
		p = FindConfigFile()
	}
	if p == "" {
		return Defaults(), "", nil
	}
	cfg, err := LoadFile(p)
	if err != nil {
		if explicit == "" && errors.Is(err, os.ErrNotExist) {
			return Defaults(), "", nil
		}
		return nil, p, err
	}
	return cfg, p, nil
}
