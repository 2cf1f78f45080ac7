package conftree_test

import (
	"testing"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/stretchr/testify/assert"
)

func TestPath_Builders(t *testing.T) {
	t.Parallel()

	ref := conftree.Path("/files/etc/X11/xorg.conf.d/99-saxmonitors.conf/Monitor")
	assert.Equal(t,
		conftree.Path("/files/etc/X11/xorg.conf.d/99-saxmonitors.conf/Monitor[last()+1]/Identifier[last()]"),
		ref.Append().Child("Identifier").Last())
	assert.Equal(t, conftree.Path("/a/b"), conftree.Path("/a/").Child("b"))
	assert.Equal(t, "Monitor", conftree.Path("/x/Monitor[2]").Label())
	assert.Equal(t, conftree.Path("/files/a.conf/Screen[2]"), conftree.Path("/files/a.conf/Screen[2]/Display[last()]").Parent())
	assert.Equal(t, conftree.Path("/"), conftree.Path("/files").Parent())
}

func TestPath_Segments(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"files", "a.conf", "Screen[last()+1]", "Display[2]"},
		conftree.Path("/files/a.conf/Screen[last()+1]/Display[2]").Segments())
	assert.Empty(t, conftree.Path("/").Segments())
}

func TestPath_TruncateAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    conftree.Path
		label string
		want  conftree.Path
		ok    bool
	}{
		{"/files/etc/X11/xorg.conf.d/10-monitor.conf/Monitor/Identifier", "Monitor", "/files/etc/X11/xorg.conf.d/10-monitor.conf/Monitor", true},
		{"/files/etc/X11/xorg.conf.d/10-monitor.conf/Monitor[2]/HorizSync", "Monitor", "/files/etc/X11/xorg.conf.d/10-monitor.conf/Monitor", true},
		{"/files/etc/X11/xorg.conf.d/50-screen.conf/Screen[3]/Display[2]/Depth", "Screen", "/files/etc/X11/xorg.conf.d/50-screen.conf/Screen", true},
		// A file named after the section is not the section step.
		{"/files/etc/X11/xorg.conf.d/Device.conf/Device/Driver", "Device", "/files/etc/X11/xorg.conf.d/Device.conf/Device", true},
		{"/files/etc/X11/xorg.conf.d/a.conf/Device/Driver", "Monitor", "/files/etc/X11/xorg.conf.d/a.conf/Device/Driver", false},
	}
	for _, tt := range tests {
		got, ok := tt.in.TruncateAt(tt.label)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
