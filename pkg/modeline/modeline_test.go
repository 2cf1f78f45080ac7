package modeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvtOutput = `# 1920x1080 59.96 Hz (CVT 2.07M9) hsync: 67.16 kHz; pclk: 173.00 MHz
Modeline "1920x1080_60.00"  173.00  1920 2048 2248 2576  1080 1083 1088 1120 -hsync +vsync
`

func TestParseOutput_DropsKeywordFromSecondLine(t *testing.T) {
	t.Parallel()

	spec, err := modeline.ParseOutput(strings.NewReader(cvtOutput))
	require.NoError(t, err)

	assert.Equal(t, `"1920x1080_60.00"  173.00  1920 2048 2248 2576  1080 1083 1088 1120 -hsync +vsync`, spec.String())
	assert.Equal(t, "1920x1080_60.00", spec.Name)
	assert.InDelta(t, 173.0, spec.ClockMHz, 0.001)
	assert.Equal(t, [4]int{1920, 2048, 2248, 2576}, spec.Horizontal)
	assert.Equal(t, [4]int{1080, 1083, 1088, 1120}, spec.Vertical)
	assert.Equal(t, []string{"-hsync", "+vsync"}, spec.Flags)
	assert.InDelta(t, 59.96, spec.RefreshHz(), 0.01)
}

func TestParseOutput_RejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
	}{
		{"empty", ""},
		{"single line", "# 1920x1080 59.96 Hz\n"},
		{"keyword only", "# c\nModeline\n"},
		{"unquoted name", "# c\nModeline 1920x1080 173.00 1920 2048 2248 2576 1080 1083 1088 1120\n"},
		{"unterminated name", "# c\nModeline \"1920x1080 173.00 1920\n"},
		{"bad clock", "# c\nModeline \"m\" fast 1920 2048 2248 2576 1080 1083 1088 1120\n"},
		{"short timings", "# c\nModeline \"m\" 173.00 1920 2048 2248 2576 1080 1083 1088\n"},
		{"non-integer timing", "# c\nModeline \"m\" 173.00 1920 2048 2248 2576 1080 1083 1088 x\n"},
		{"stray token", "# c\nModeline \"m\" 173.00 1920 2048 2248 2576 1080 1083 1088 1120 interlace\n"},
		{"error text", "cvt: invalid argument\nUsage: cvt [-v|--verbose] [-r|--reduced] X Y [refresh]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := modeline.ParseOutput(strings.NewReader(tt.output))
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindToolInvocation), "got %v", err)
		})
	}
}

func TestParams_Args(t *testing.T) {
	t.Parallel()

	args, err := modeline.Params{Resolution: "1024x768"}.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"1024", "768"}, args)

	args, err = modeline.Params{Custom: true, Width: 1280, Height: 1024, Refresh: 75}.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"1280", "1024", "75"}, args)

	_, err = modeline.Params{Resolution: "big"}.Args()
	require.Error(t, err)

	_, err = modeline.Params{Custom: true, Width: 1280}.Args()
	require.Error(t, err)
}

func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cvt")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCalculator_Compute(t *testing.T) {
	t.Parallel()

	tool := fakeTool(t, `echo "# $1x$2 $3"
echo "Modeline \"$1x$2_60.00\"  173.00  $1 2048 2248 2576  $2 1083 1088 1120 -hsync +vsync"`)
	scratch := t.TempDir()
	calc := &modeline.Calculator{Tool: tool, Timeout: 5 * time.Second, ScratchDir: scratch}

	spec, err := calc.Compute(context.Background(), modeline.Params{Resolution: "1920x1080"})
	require.NoError(t, err)
	assert.Equal(t, `"1920x1080_60.00"  173.00  1920 2048 2248 2576  1080 1083 1088 1120 -hsync +vsync`, spec.String())

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be removed")
}

func TestCalculator_ConcurrentCallsDoNotCollide(t *testing.T) {
	t.Parallel()

	tool := fakeTool(t, `echo "# $1x$2"
sleep 0.1
echo "Modeline \"$1x$2\" 100.00 $1 1 1 1 $2 1 1 1"`)
	calc := &modeline.Calculator{Tool: tool, ScratchDir: t.TempDir()}

	sizes := []string{"640x480", "800x600", "1024x768", "1280x1024"}
	results := make([]string, len(sizes))
	errs := make(chan error, len(sizes))
	for i, size := range sizes {
		go func() {
			spec, err := calc.Compute(context.Background(), modeline.Params{Resolution: size})
			results[i] = spec.Name
			errs <- err
		}()
	}
	for range sizes {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, sizes, results)
}

func TestCalculator_Failures(t *testing.T) {
	t.Parallel()

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()
		calc := &modeline.Calculator{Tool: fakeTool(t, "echo nope >&2; exit 1"), ScratchDir: t.TempDir()}
		_, err := calc.Compute(context.Background(), modeline.Params{Resolution: "800x600"})
		assert.True(t, fault.Is(err, fault.KindToolInvocation), "got %v", err)
	})

	t.Run("missing tool", func(t *testing.T) {
		t.Parallel()
		calc := &modeline.Calculator{Tool: filepath.Join(t.TempDir(), "absent"), ScratchDir: t.TempDir()}
		_, err := calc.Compute(context.Background(), modeline.Params{Resolution: "800x600"})
		assert.True(t, fault.Is(err, fault.KindToolInvocation), "got %v", err)
	})

	t.Run("garbage output", func(t *testing.T) {
		t.Parallel()
		calc := &modeline.Calculator{Tool: fakeTool(t, "echo one; echo two"), ScratchDir: t.TempDir()}
		_, err := calc.Compute(context.Background(), modeline.Params{Resolution: "800x600"})
		assert.True(t, fault.Is(err, fault.KindToolInvocation), "got %v", err)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		calc := &modeline.Calculator{Tool: fakeTool(t, "sleep 10"), Timeout: 100 * time.Millisecond, ScratchDir: t.TempDir()}
		start := time.Now()
		_, err := calc.Compute(context.Background(), modeline.Params{Resolution: "800x600"})
		assert.True(t, fault.Is(err, fault.KindToolTimeout), "got %v", err)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		calc := &modeline.Calculator{Tool: fakeTool(t, "sleep 10"), ScratchDir: t.TempDir()}
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(100*time.Millisecond, cancel)
		_, err := calc.Compute(ctx, modeline.Params{Resolution: "800x600"})
		assert.True(t, fault.Is(err, fault.KindAborted), "got %v", err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
