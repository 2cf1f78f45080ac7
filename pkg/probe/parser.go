package probe

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dkoosis/sax/pkg/fault"
)

// DriverMarker precedes the driver name on X server log lines.
const DriverMarker = "Matched "

// maxLineLength bounds a single log line; X logs can carry long EDID dumps.
const maxLineLength = 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}

// ParseDrivers returns one candidate per line containing DriverMarker, in
// file order. The name is the first whitespace-delimited token after the
// marker. Duplicates are kept.
func ParseDrivers(r io.Reader) ([]DriverCandidate, error) {
	var drivers []DriverCandidate
	scanner := newScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, DriverMarker)
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len(DriverMarker):])
		if len(fields) == 0 {
			continue
		}
		drivers = append(drivers, DriverCandidate{
			Name:           fields[0],
			DiscoveryOrder: len(drivers),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return drivers, nil
}

// ParseResolutions returns the first token of every line in the first run
// of space-indented lines. Lines before the run are skipped; the first
// unindented line after it ends the scan.
func ParseResolutions(r io.Reader) ([]ResolutionCandidate, error) {
	var resolutions []ResolutionCandidate
	scanner := newScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, " ") {
			if len(resolutions) > 0 {
				break
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		resolutions = append(resolutions, ResolutionCandidate{Raw: fields[0]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return resolutions, nil
}

// ParseDriversString parses a driver log held in memory.
func ParseDriversString(s string) ([]DriverCandidate, error) {
	return ParseDrivers(strings.NewReader(s))
}

// ParseResolutionsString parses an xrandr capture held in memory.
func ParseResolutionsString(s string) ([]ResolutionCandidate, error) {
	return ParseResolutions(strings.NewReader(s))
}

// LoadDrivers parses the driver log at path.
func LoadDrivers(path string) ([]DriverCandidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.New(fault.KindProbe, "read driver log", path, err)
	}
	defer f.Close()

	drivers, err := ParseDrivers(f)
	if err != nil {
		return nil, fault.New(fault.KindProbe, "read driver log", path, err)
	}
	return drivers, nil
}

// LoadResolutions parses the resolution log at path.
func LoadResolutions(path string) ([]ResolutionCandidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.New(fault.KindProbe, "read resolution log", path, err)
	}
	defer f.Close()

	resolutions, err := ParseResolutions(f)
	if err != nil {
		return nil, fault.New(fault.KindProbe, "read resolution log", path, err)
	}
	return resolutions, nil
}
