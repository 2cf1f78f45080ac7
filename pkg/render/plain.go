package render

import (
	"fmt"
	"strings"

	"github.com/dkoosis/sax/pkg/conftree"
	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
	"github.com/dkoosis/sax/pkg/synth"
)

// Plain renders terse, ANSI-free text with one fact per line, suited to
// logs and pipes.
type Plain struct{}

// NewPlain creates a plain renderer.
func NewPlain() *Plain {
	return &Plain{}
}

// Candidates prints "driver NAME" and "resolution WxH" lines.
func (p *Plain) Candidates(c probe.Candidates) string {
	var sb strings.Builder
	for _, d := range c.Drivers {
		fmt.Fprintf(&sb, "driver %s\n", d.Name)
	}
	for _, r := range c.Resolutions {
		fmt.Fprintf(&sb, "resolution %s\n", r.Raw)
	}
	return sb.String()
}

// Modeline prints the modeline value alone.
func (p *Plain) Modeline(spec modeline.Spec) string {
	return spec.String() + "\n"
}

// Report prints one line per write and failure, then a status line.
func (p *Plain) Report(r *synth.Report) string {
	var sb strings.Builder
	for _, b := range r.Blocks {
		for _, w := range b.Writes {
			fmt.Fprintf(&sb, "set %s = %s\n", w.Path, w.Value)
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&sb, "fail %s: %v\n", f.Path, f.Err)
	}
	status := "SAVED"
	if !r.Saved {
		status = "NOT SAVED"
	}
	fmt.Fprintf(&sb, "%s: %s\n", status, summary(r))
	return sb.String()
}

// Entries prints "path = value" for every valued node.
func (p *Plain) Entries(entries []conftree.Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Value == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s = %s\n", e.Path, e.Value)
	}
	return sb.String()
}
