//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

var forwardedSignals = []os.Signal{os.Interrupt}

// isolate is a no-op where process groups are unavailable.
func isolate(*exec.Cmd) {}

func signalGroup(p *os.Process, sig os.Signal) error {
	if p == nil {
		return nil
	}
	return p.Signal(sig)
}

func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

func exitStatus(state *os.ProcessState) int {
	return state.ExitCode()
}
