package synth_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	t.Parallel()

	r, err := synth.ParseRange("30-60")
	require.NoError(t, err)
	assert.Equal(t, synth.Range{Low: 30, High: 60}, r)
	assert.Equal(t, "30-60", r.String())

	r, err = synth.ParseRange(" 50 - 75 ")
	require.NoError(t, err)
	assert.Equal(t, "50-75", r.String())

	for _, bad := range []string{"", "60", "a-b", "60-30", "0-10", "-5-10"} {
		_, err := synth.ParseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestSelection_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, synth.Selection{Driver: "nv", Resolution: "1024x768", Depth: "24"}.Validate())
	require.NoError(t, synth.Selection{Driver: "nv", Depth: "24", Custom: true, Width: 800, Height: 600, Refresh: 60}.Validate())

	err := synth.Selection{Resolution: "huge", Depth: "deep"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no driver")
	assert.Contains(t, err.Error(), "colour depth")

	err = synth.Selection{Driver: "nv", Resolution: "1024x768", Depth: "24", Advanced: true}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizontal sync")
}

func TestSelection_Modes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1024x768_60.00", synth.Selection{Resolution: "1024x768"}.Modes(synth.DefaultRefreshTag))
	assert.Equal(t, "800x600_60.00", synth.Selection{Custom: true, Width: 800, Height: 600}.Modes(synth.DefaultRefreshTag))
	assert.Equal(t, "1024x768_60.00", synth.Selection{Resolution: "1024x768", Custom: true, Width: 800, Height: 600}.Modes(synth.DefaultRefreshTag))
}

func TestFailure_JSON(t *testing.T) {
	t.Parallel()

	f := synth.Failure{
		Section:   "Monitor",
		Attribute: "Modeline",
		Path:      "/files/x/Monitor/Modeline",
		Err:       fault.New(fault.KindToolTimeout, "compute", "cvt", errors.New("deadline")),
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "tool-timeout", got["kind"])
	assert.Equal(t, "Modeline", got["attribute"])
	assert.Contains(t, got["error"], "deadline")
}
