package pathstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkoosis/sax/pkg/pathstore"
	"github.com/dkoosis/sax/pkg/xorgconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	confDir = "/etc/X11/xorg.conf.d"
	include = confDir + "/*.conf"
	base    = "/files" + confDir
)

func writeConf(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(confDir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func openStore(t *testing.T, root string) *pathstore.Store {
	t.Helper()
	s, err := pathstore.Open(pathstore.Options{Root: root, Include: []string{include}, Lens: xorgconf.Lens{}})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const twoMonitors = `Section "Monitor"
	Identifier "A"
	HorizSync 30-60
EndSection

Section "Monitor"
	Identifier "B"
EndSection
`

func TestMatch_DocumentOrderWithPositions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-monitor.conf", twoMonitors)
	writeConf(t, root, "20-device.conf", "Section \"Device\"\n\tDriver \"nv\"\nEndSection\n")
	s := openStore(t, root)

	got, err := s.Match(base + "/*/Monitor/*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		base + "/10-monitor.conf/Monitor[1]/Identifier",
		base + "/10-monitor.conf/Monitor[1]/HorizSync",
		base + "/10-monitor.conf/Monitor[2]/Identifier",
	}, got)

	got, err = s.Match(base + "/*/Device/Driver")
	require.NoError(t, err)
	assert.Equal(t, []string{base + "/20-device.conf/Device/Driver"}, got)

	got, err = s.Match(base + "/*/Screen/*")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatch_Predicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-monitor.conf", twoMonitors)
	s := openStore(t, root)

	v, err := s.Get(base + "/10-monitor.conf/Monitor[last()]/Identifier")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	v, err = s.Get(base + "/10-monitor.conf/Monitor[1]/Identifier")
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	got, err := s.Match(base + "/10-monitor.conf/Monitor[last()+1]")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Match(base + "/10-monitor.conf/Monitor[3]")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Match(base + "/1?-*.conf/Mon*")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGet_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-monitor.conf", twoMonitors)
	s := openStore(t, root)

	_, err := s.Get(base + "/10-monitor.conf/Monitor/Identifier")
	assert.ErrorIs(t, err, pathstore.ErrAmbiguous)

	_, err = s.Get(base + "/10-monitor.conf/Device/Driver")
	assert.ErrorIs(t, err, pathstore.ErrNotFound)

	_, err = s.Get("files/relative")
	assert.ErrorIs(t, err, pathstore.ErrInvalidPath)

	_, err = s.Get(base + "//x")
	assert.ErrorIs(t, err, pathstore.ErrInvalidPath)
}

func TestSet_AppendsSiblingAfterLastSameLabel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-monitor.conf", twoMonitors+"# trailing\n")
	s := openStore(t, root)

	require.NoError(t, s.Set(base+"/10-monitor.conf/Monitor[last()+1]/Identifier[last()]", "C"))

	got, err := s.Match(base + "/10-monitor.conf/*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		base + "/10-monitor.conf/Monitor[1]",
		base + "/10-monitor.conf/Monitor[2]",
		base + "/10-monitor.conf/Monitor[3]",
		base + "/10-monitor.conf/#comment",
	}, got)

	v, err := s.Get(base + "/10-monitor.conf/Monitor[3]/Identifier")
	require.NoError(t, err)
	assert.Equal(t, "C", v)
}

func TestSet_OverwritesExistingAndCreatesMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-monitor.conf", twoMonitors)
	s := openStore(t, root)

	require.NoError(t, s.Set(base+"/10-monitor.conf/Monitor[1]/HorizSync", "31-80"))
	v, err := s.Get(base + "/10-monitor.conf/Monitor[1]/HorizSync")
	require.NoError(t, err)
	assert.Equal(t, "31-80", v)

	require.NoError(t, s.Set(base+"/10-monitor.conf/Monitor[2]/VertRefresh", "50-75"))
	v, err = s.Get(base + "/10-monitor.conf/Monitor[2]/VertRefresh")
	require.NoError(t, err)
	assert.Equal(t, "50-75", v)

	err = s.Set(base+"/10-monitor.conf/Monitor/Identifier", "X")
	assert.ErrorIs(t, err, pathstore.ErrAmbiguous)

	err = s.Set(base+"/10-monitor.conf/Monitor/Gamma", "1.0")
	assert.ErrorIs(t, err, pathstore.ErrAmbiguous)

	err = s.Set(base+"/10-monitor.conf/Scr*/Identifier", "X")
	assert.Error(t, err, "globs cannot be created")

	err = s.Set(base+"/10-monitor.conf/Monitor[5]/Identifier", "X")
	assert.ErrorIs(t, err, pathstore.ErrNotFound)
}

func TestSave_WritesOnlyTouchedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// Non-canonical spacing: rewriting this file would change it.
	untouched := writeConf(t, root, "05-keep.conf", "Section \"Device\"\n    Driver   \"nv\"\nEndSection\n")
	monitor := writeConf(t, root, "10-monitor.conf", twoMonitors)
	s := openStore(t, root)

	require.NoError(t, s.Set(base+"/10-monitor.conf/Monitor[last()+1]/Identifier[last()]", "SaX3-monitor"))
	require.NoError(t, s.Save())

	kept, err := os.ReadFile(untouched)
	require.NoError(t, err)
	assert.Equal(t, "Section \"Device\"\n    Driver   \"nv\"\nEndSection\n", string(kept))

	written, err := os.ReadFile(monitor)
	require.NoError(t, err)
	assert.Equal(t, twoMonitors+"\nSection \"Monitor\"\n\tIdentifier \"SaX3-monitor\"\nEndSection\n", string(written))

	entries, err := os.ReadDir(filepath.Dir(monitor))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "temp file left behind: %s", e.Name())
	}
}

func TestWrite_RecordsForm(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := openStore(t, root)

	p, err := s.Write(base+"/99-saxdevice.conf/Device[last()+1]/Identifier[last()]", "0", pathstore.FormQuoted)
	require.NoError(t, err)
	assert.Equal(t, base+"/99-saxdevice.conf/Device/Identifier", p)
	p, err = s.Write(base+"/99-saxdevice.conf/Device[last()+1]/Identifier[last()]", "1", pathstore.FormQuoted)
	require.NoError(t, err)
	assert.Equal(t, base+"/99-saxdevice.conf/Device[2]/Identifier", p)

	_, err = s.Write(base+"/99-saxdevice.conf/Device[2]/BusID", "", pathstore.FormQuoted)
	require.NoError(t, err)
	// Auto keeps the form already recorded.
	_, err = s.Write(base+"/99-saxdevice.conf/Device[1]/Identifier", "2", pathstore.FormAuto)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	data, err := os.ReadFile(filepath.Join(root, "etc/X11/xorg.conf.d/99-saxdevice.conf"))
	require.NoError(t, err)
	assert.Equal(t, "Section \"Device\"\n\tIdentifier \"2\"\nEndSection\n\n"+
		"Section \"Device\"\n\tIdentifier \"1\"\n\tBusID \"\"\nEndSection\n", string(data))
}

func TestSave_CreatesNewFragment(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := openStore(t, root)

	require.NoError(t, s.Set(base+"/99-saxdevice.conf/Device[last()+1]/Identifier[last()]", "SaX3-device"))
	require.NoError(t, s.Set(base+"/99-saxdevice.conf/Device[last()]/Driver[last()]", "radeon"))
	require.NoError(t, s.Save())

	data, err := os.ReadFile(filepath.Join(root, "etc/X11/xorg.conf.d/99-saxdevice.conf"))
	require.NoError(t, err)
	assert.Equal(t, "Section \"Device\"\n\tIdentifier \"SaX3-device\"\n\tDriver \"radeon\"\nEndSection\n", string(data))

	reopened := openStore(t, root)
	v, err := reopened.Get(base + "/99-saxdevice.conf/Device/Driver")
	require.NoError(t, err)
	assert.Equal(t, "radeon", v)
}

func TestSave_RejectsPathsOutsideInclude(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := openStore(t, root)

	require.NoError(t, s.Set("/files/etc/X11/xorg.conf.d/notes.txt/Device/Driver", "nv"))
	require.NoError(t, s.Set(base+"/99-sax.conf/Device/Driver", "nv"))
	err := s.Save()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")

	_, statErr := os.Stat(filepath.Join(root, "etc/X11/xorg.conf.d/99-sax.conf"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written when validation fails")
}

func TestOpen_Failures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConf(t, root, "10-bad.conf", "Section \"Monitor\"\n")

	_, err := pathstore.Open(pathstore.Options{Root: root, Include: []string{include}, Lens: xorgconf.Lens{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10-bad.conf")

	_, err = pathstore.Open(pathstore.Options{Root: root, Include: []string{include}})
	assert.Error(t, err, "lens is required")

	_, err = pathstore.Open(pathstore.Options{Root: root, Include: []string{"relative/*.conf"}, Lens: xorgconf.Lens{}})
	assert.Error(t, err)
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	t.Parallel()

	s := openStore(t, t.TempDir())
	require.NoError(t, s.Close())

	_, err := s.Match(base + "/*")
	assert.Error(t, err)
	assert.Error(t, s.Set(base+"/x.conf/Device/Driver", "nv"))
	assert.Error(t, s.Save())
}
