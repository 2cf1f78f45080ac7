// Package modeline computes display timings by invoking a CVT timing
// generator (cvt(1) by default) and extracting the modeline it prints.
//
// The tool's stdout is redirected into a scratch file unique to each call.
// Its first line is a comment echoing the request; the second is
//
//	Modeline "1920x1080_60.00"  173.00  1920 2048 2248 2576  1080 1083 1088 1120 -hsync +vsync
//
// and everything after the leading keyword is the modeline value.
package modeline

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkoosis/sax/pkg/fault"
	"github.com/dkoosis/sax/pkg/probe"
)

// Params selects what to compute. When Custom is set, Width, Height and
// Refresh are used; otherwise Resolution ("WxH") is.
type Params struct {
	Resolution string
	Custom     bool
	Width      int
	Height     int
	Refresh    int
}

// Args returns the tool arguments for p.
func (p Params) Args() ([]string, error) {
	if p.Custom {
		if p.Width <= 0 || p.Height <= 0 || p.Refresh <= 0 {
			return nil, fmt.Errorf("custom timing needs positive width, height and refresh (got %dx%d@%d)",
				p.Width, p.Height, p.Refresh)
		}
		return []string{strconv.Itoa(p.Width), strconv.Itoa(p.Height), strconv.Itoa(p.Refresh)}, nil
	}
	w, h, err := probe.ParseResolution(p.Resolution)
	if err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(w), strconv.Itoa(h)}, nil
}

// Spec is a parsed modeline.
type Spec struct {
	Name       string   `json:"name"`
	ClockMHz   float64  `json:"clock_mhz"`
	Horizontal [4]int   `json:"horizontal"` // display, sync start, sync end, total
	Vertical   [4]int   `json:"vertical"`
	Flags      []string `json:"flags,omitempty"`

	raw string
}

// String returns the modeline value exactly as the tool printed it, minus
// the leading keyword.
func (s Spec) String() string {
	return s.raw
}

// RefreshHz derives the vertical refresh from the timings.
func (s Spec) RefreshHz() float64 {
	if s.Horizontal[3] == 0 || s.Vertical[3] == 0 {
		return 0
	}
	return s.ClockMHz * 1e6 / float64(s.Horizontal[3]*s.Vertical[3])
}

// ParseOutput reads the first two lines of tool output and returns the
// second line with its first token removed, validated as a modeline.
func ParseOutput(r io.Reader) (Spec, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Spec{}, fault.New(fault.KindToolInvocation, "read output", "", err)
	}
	if len(lines) < 2 {
		return Spec{}, fault.Newf(fault.KindToolInvocation, "read output", "",
			"expected 2 lines of output, got %d", len(lines))
	}

	second := strings.TrimSpace(lines[1])
	_, rest, found := strings.Cut(second, " ")
	if !found {
		return Spec{}, fault.Newf(fault.KindToolInvocation, "parse output", "",
			"no modeline after keyword in %q", second)
	}
	return Parse(strings.TrimSpace(rest))
}

// Parse validates a modeline value: a quoted name, a decimal pixel clock,
// eight integer timings and optional sync flags.
func Parse(value string) (Spec, error) {
	invalid := func(format string, args ...any) (Spec, error) {
		return Spec{}, fault.Newf(fault.KindToolInvocation, "parse modeline", "",
			"%q: "+format, append([]any{value}, args...)...)
	}

	if !strings.HasPrefix(value, `"`) {
		return invalid("missing quoted mode name")
	}
	end := strings.Index(value[1:], `"`)
	if end < 0 {
		return invalid("unterminated mode name")
	}
	name := value[1 : end+1]
	if name == "" {
		return invalid("empty mode name")
	}

	fields := strings.Fields(value[end+2:])
	if len(fields) < 9 {
		return invalid("expected pixel clock and 8 timings, got %d fields", len(fields))
	}
	clock, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || clock <= 0 {
		return invalid("invalid pixel clock %q", fields[0])
	}

	spec := Spec{Name: name, ClockMHz: clock, raw: value}
	for i := 0; i < 8; i++ {
		n, err := strconv.Atoi(fields[1+i])
		if err != nil || n < 0 {
			return invalid("invalid timing %q", fields[1+i])
		}
		if i < 4 {
			spec.Horizontal[i] = n
		} else {
			spec.Vertical[i-4] = n
		}
	}
	for _, flag := range fields[9:] {
		if !strings.HasPrefix(flag, "+") && !strings.HasPrefix(flag, "-") {
			return invalid("unexpected token %q", flag)
		}
		spec.Flags = append(spec.Flags, flag)
	}
	return spec, nil
}
