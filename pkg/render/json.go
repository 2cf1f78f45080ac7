package render

import (
	"encoding/json"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
)

// JSON renders results as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	Version string `json:"version"`
	Type    string `json:"type"`
	Data    any    `json:"data"`
}

type modelineOutput struct {
	modeline.Spec
	Value     string  `json:"value"`
	RefreshHz float64 `json:"refresh_hz"`
}

func (j *JSON) render(kind string, data any) string {
	out := jsonOutput{Version: "1.0", Type: kind, Data: data}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON) + "\n"
	}
	return string(encoded) + "\n"
}

// Candidates implements Renderer.
func (j *JSON) Candidates(c probe.Candidates) string {
	return j.render("candidates", c)
}

// Modeline implements Renderer.
func (j *JSON) Modeline(spec modeline.Spec) string {
	return j.render("modeline", modelineOutput{Spec: spec, Value: spec.String(), RefreshHz: spec.RefreshHz()})
}

// Report implements Renderer.
func (j *JSON) Report(r *synth.Report) string {
	return j.render("report", r)
}

// Entries implements Renderer.
func (j *JSON) Entries(entries []conftree.Entry) string {
	if entries == nil {
		entries = []conftree.Entry{}
	}
	return j.render("entries", entries)
}
