// Package config loads and resolves sax configuration.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--root, --theme, --format, --no-color, --debug)
//  2. Environment variables (SAX_ROOT, SAX_TIMING_TOOL, SAX_THEME, SAX_DEBUG, NO_COLOR)
//  3. Config file (.sax.yaml or .sax.toml in the working directory, else
//     $XDG_CONFIG_HOME/sax/config.yaml)
//  4. Hardcoded defaults
//
// # Config File
//
// YAML and TOML files share the same keys:
//
//	root: /
//	conf_dir: /etc/X11/xorg.conf.d
//	timing_tool: cvt
//	tool_timeout: 10s
//	probe:
//	  xinit: xinit
//	  xrandr: /usr/bin/xrandr
//	  display: ":9"
//	  timeout: 30s
//	depths: ["8", "15", "16", "24"]
//	refresh_tag: "_60.00"
//	theme: default
//	format: auto
//	log_level: info
//
// The file format is chosen by extension; anything but .toml is read as YAML.
package config
