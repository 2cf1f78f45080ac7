package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkoosis/sax/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	assert.Equal(t, "/etc/X11/xorg.conf.d/*.conf", cfg.EffectiveFilter())
	assert.Equal(t, "cvt", cfg.TimingTool)
	assert.Equal(t, config.Duration(10*time.Second), cfg.ToolTimeout)
	assert.Equal(t, ":9", cfg.Probe.Display)
	assert.Equal(t, []string{"8", "15", "16", "24"}, cfg.Depths)
}

func TestLoadFile_YAMLOverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	p := writeFile(t, ".sax.yaml", `
root: /mnt/target
timing_tool: /opt/bin/cvt
tool_timeout: 3s
probe:
  display: ":7"
depths: ["16", "24"]
`)
	cfg, err := config.LoadFile(p)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/target", cfg.Root)
	assert.Equal(t, "/opt/bin/cvt", cfg.TimingTool)
	assert.Equal(t, config.Duration(3*time.Second), cfg.ToolTimeout)
	assert.Equal(t, ":7", cfg.Probe.Display)
	assert.Equal(t, config.DefaultXinit, cfg.Probe.Xinit, "unset nested key keeps default")
	assert.Equal(t, []string{"16", "24"}, cfg.Depths)
	assert.Equal(t, config.DefaultRefreshTag, cfg.RefreshTag)
}

func TestLoadFile_TOML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, ".sax.toml", `
conf_dir = "/etc/X11/xorg.conf.d.test"
theme = "mono"

[probe]
timeout = "1m"
xrandr = "/usr/local/bin/xrandr"
`)
	cfg, err := config.LoadFile(p)
	require.NoError(t, err)

	assert.Equal(t, "/etc/X11/xorg.conf.d.test/*.conf", cfg.EffectiveFilter())
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, config.Duration(time.Minute), cfg.Probe.Timeout)
	assert.Equal(t, "/usr/local/bin/xrandr", cfg.Probe.Xrandr)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFile(writeFile(t, "bad.yaml", "tool_timeout: soon\n"))
	assert.Error(t, err)

	_, err = config.LoadFile(writeFile(t, "bad.toml", "root = \n"))
	assert.Error(t, err)

	_, _, err = config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")
}
