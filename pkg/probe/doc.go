// Package probe turns the text captured from a throwaway X server run into
// typed candidates.
//
// Two logs are consumed:
//
//   - the X server log, where each autoconfigured driver is announced on a
//     line containing "Matched <driver> ...";
//   - xrandr's stdout, where the modes of the first connected output are
//     listed on indented lines directly below the output header.
//
// Parsing is pure. LoadDrivers and LoadResolutions add file access and
// report an unreadable log as a fault.KindProbe error; an empty result is
// not an error. Prober runs the capture itself.
package probe
