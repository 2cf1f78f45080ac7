package synth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkoosis/sax/pkg/modeline"
	"github.com/dkoosis/sax/pkg/probe"
)

// DefaultRefreshTag is appended to the resolution to name the mode listed
// in the Screen's Display subsection.
const DefaultRefreshTag = "_60.00"

// Range is an inclusive frequency range such as a HorizSync of 30-60 kHz.
type Range struct {
	Low  int `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

// String renders the range the way xorg.conf expects it.
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Low, r.High)
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Low == 0 && r.High == 0
}

// ParseRange parses "LOW-HIGH".
func ParseRange(s string) (Range, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("range %q: want LOW-HIGH", s)
	}
	low, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	high, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if low <= 0 || high < low {
		return Range{}, fmt.Errorf("range %q: want 0 < LOW <= HIGH", s)
	}
	return Range{Low: low, High: high}, nil
}

// Selection holds the user's choices for one synthesis run.
type Selection struct {
	Driver     string `json:"driver"`
	Resolution string `json:"resolution,omitempty"`
	Depth      string `json:"depth"`

	Advanced    bool  `json:"advanced,omitempty"`
	HorizSync   Range `json:"horiz_sync,omitzero"`
	VertRefresh Range `json:"vert_refresh,omitzero"`

	Custom  bool `json:"custom,omitempty"`
	Width   int  `json:"width,omitempty"`
	Height  int  `json:"height,omitempty"`
	Refresh int  `json:"refresh,omitempty"`
}

// Validate checks that the selection names everything a run writes.
func (s Selection) Validate() error {
	var errs []error
	if s.Driver == "" {
		errs = append(errs, errors.New("no driver selected"))
	}
	if s.Depth == "" {
		errs = append(errs, errors.New("no colour depth selected"))
	} else if n, err := strconv.Atoi(s.Depth); err != nil || n <= 0 {
		errs = append(errs, fmt.Errorf("colour depth %q is not a positive integer", s.Depth))
	}
	if s.Custom {
		if s.Width <= 0 || s.Height <= 0 || s.Refresh <= 0 {
			errs = append(errs, errors.New("custom timing needs width, height and refresh"))
		}
	} else if _, _, err := probe.ParseResolution(s.Resolution); err != nil {
		errs = append(errs, err)
	}
	if s.Advanced {
		if s.HorizSync.IsZero() {
			errs = append(errs, errors.New("advanced timing needs a horizontal sync range"))
		}
		if s.VertRefresh.IsZero() {
			errs = append(errs, errors.New("advanced timing needs a vertical refresh range"))
		}
	}
	return errors.Join(errs...)
}

// ModelineParams returns the timing-tool parameters for the selection.
func (s Selection) ModelineParams() modeline.Params {
	return modeline.Params{
		Resolution: s.Resolution,
		Custom:     s.Custom,
		Width:      s.Width,
		Height:     s.Height,
		Refresh:    s.Refresh,
	}
}

// Modes returns the mode name listed in the Display subsection. A custom
// selection without a resolution uses its own geometry.
func (s Selection) Modes(tag string) string {
	res := s.Resolution
	if res == "" && s.Custom {
		res = fmt.Sprintf("%dx%d", s.Width, s.Height)
	}
	return res + tag
}
