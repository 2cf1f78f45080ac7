// Package render formats sax results for terminals, plain text logs and
// automation.
package render

import (
	"fmt"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
)

// Renderer converts results to formatted output.
type Renderer interface {
	Candidates(c probe.Candidates) string
	Modeline(spec modeline.Spec) string
	Report(r *synth.Report) string
	Entries(entries []conftree.Entry) string
}

// Format names.
const (
	FormatTerminal = "terminal"
	FormatPlain    = "plain"
	FormatJSON     = "json"
)

// New returns the renderer for format. The theme and width apply to the
// terminal renderer only.
func New(format string, theme Theme, width int) (Renderer, error) {
	switch format {
	case FormatTerminal:
		return NewTerminal(theme, width), nil
	case FormatPlain:
		return NewPlain(), nil
	case FormatJSON:
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// entryLabel returns the last step of an entry's path.
func entryLabel(e conftree.Entry) string {
	segs := e.Path.Segments()
	if len(segs) == 0 {
		return string(e.Path)
	}
	return segs[len(segs)-1]
}
