package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// DriverCandidate is a driver announced by the X server log.
// DiscoveryOrder is the 0-based position of its line among marker lines.
type DriverCandidate struct {
	Name           string `json:"name"`
	DiscoveryOrder int    `json:"discovery_order"`
}

// ResolutionCandidate is one "<width>x<height>" token from xrandr output.
type ResolutionCandidate struct {
	Raw string `json:"raw"`
}

// Dimensions parses Raw as WxH.
func (r ResolutionCandidate) Dimensions() (width, height int, err error) {
	return ParseResolution(r.Raw)
}

func (r ResolutionCandidate) String() string {
	return r.Raw
}

// ParseResolution splits a "WxH" token into positive integers.
func ParseResolution(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q: missing 'x'", s)
	}
	width, err = strconv.Atoi(ws)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("resolution %q: invalid width", s)
	}
	height, err = strconv.Atoi(hs)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q: invalid height", s)
	}
	return width, height, nil
}

// DriverNames returns the names in discovery order.
func DriverNames(cands []DriverCandidate) []string {
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	return names
}

// ResolutionNames returns the raw tokens in file order.
func ResolutionNames(cands []ResolutionCandidate) []string {
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Raw
	}
	return names
}
