package config_test

import (
	"testing"
	"time"

	"github.com/dkoosis/sax/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolve_PriorityOrder(t *testing.T) {
	t.Parallel()

	file := writeFile(t, ".sax.yaml", "root: /from-file\ntheme: mono\ntiming_tool: file-cvt\n")

	tests := []struct {
		name           string
		cli            config.CliFlags
		env            map[string]string
		wantRoot       string
		wantRootSource string
		wantTool       string
		wantTheme      string
	}{
		{
			name:           "file over defaults",
			wantRoot:       "/from-file",
			wantRootSource: config.SourceFile,
			wantTool:       "file-cvt",
			wantTheme:      "mono",
		},
		{
			name:           "env over file",
			env:            map[string]string{"SAX_ROOT": "/from-env", "SAX_TIMING_TOOL": "env-cvt", "SAX_THEME": "default"},
			wantRoot:       "/from-env",
			wantRootSource: config.SourceEnv,
			wantTool:       "env-cvt",
			wantTheme:      "default",
		},
		{
			name:           "cli over env",
			cli:            config.CliFlags{Root: "/from-cli", RootSet: true, Theme: "ascii", ThemeSet: true},
			env:            map[string]string{"SAX_ROOT": "/from-env", "SAX_THEME": "default"},
			wantRoot:       "/from-cli",
			wantRootSource: config.SourceCLI,
			wantTool:       "file-cvt",
			wantTheme:      "ascii",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cli.ConfigPath = file
			resolved, err := config.Resolve(tt.cli, env(tt.env))
			require.NoError(t, err)

			assert.Equal(t, tt.wantRoot, resolved.Root)
			assert.Equal(t, tt.wantRootSource, resolved.RootSource)
			assert.Equal(t, tt.wantTool, resolved.TimingTool)
			assert.Equal(t, tt.wantTheme, resolved.Theme)
			assert.Equal(t, file, resolved.ConfigFile)
		})
	}
}

func TestResolve_NoColorAndDebug(t *testing.T) {
	t.Parallel()

	file := writeFile(t, ".sax.yaml", "no_color: false\n")

	resolved, err := config.Resolve(config.CliFlags{ConfigPath: file}, env(map[string]string{"NO_COLOR": "1", "SAX_DEBUG": "true"}))
	require.NoError(t, err)
	assert.True(t, resolved.NoColor)
	assert.Equal(t, config.SourceEnv, resolved.NoColorSource)
	assert.True(t, resolved.Debug)
	assert.Equal(t, "debug", resolved.LogLevel)

	resolved, err = config.Resolve(config.CliFlags{ConfigPath: file, NoColorSet: true, DebugSet: true}, env(map[string]string{"NO_COLOR": "1", "SAX_DEBUG": "1"}))
	require.NoError(t, err)
	assert.False(t, resolved.NoColor)
	assert.Equal(t, config.SourceCLI, resolved.NoColorSource)
	assert.False(t, resolved.Debug)
	assert.Equal(t, "info", resolved.LogLevel)
}

func TestResolve_CarriesFileSettings(t *testing.T) {
	t.Parallel()

	file := writeFile(t, ".sax.yaml", "filter: /etc/X11/xorg.conf.d/9*.conf\ntool_timeout: 2s\nprobe:\n  timeout: 5s\n")
	resolved, err := config.Resolve(config.CliFlags{ConfigPath: file}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "/etc/X11/xorg.conf.d/9*.conf", resolved.Filter)
	assert.Equal(t, 2*time.Second, resolved.ToolTimeout)
	assert.Equal(t, 5*time.Second, resolved.Probe.Timeout)
	assert.Equal(t, config.DefaultXrandr, resolved.Probe.Xrandr)
}

func TestResolve_Validation(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"relative filter":  "filter: conf.d/*.conf\n",
		"bad format":       "format: html\n",
		"zero timeout":     "tool_timeout: 0s\n",
		"bad depth":        "depths: [\"deep\"]\n",
		"empty depths":     "depths: []\n",
		"bad log level":    "log_level: loud\n",
		"empty root":       "root: \"\"\n",
		"empty tool":       "timing_tool: \"\"\n",
		"negative timeout": "probe:\n  timeout: -1s\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Resolve(config.CliFlags{ConfigPath: writeFile(t, ".sax.yaml", content)}, env(nil))
			assert.Error(t, err)
		})
	}

	_, err := config.Resolve(config.CliFlags{ConfigPath: writeFile(t, ".sax.yaml", ""), Format: "xml", FormatSet: true}, env(nil))
	assert.Error(t, err)
}
