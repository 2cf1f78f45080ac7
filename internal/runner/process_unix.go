//go:build unix

package runner

import (
	"os"
	"os/exec"
	"syscall"
)

// forwardedSignals are relayed to the child's process group.
var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// isolate starts cmd as the leader of a new process group so that tools
// spawning their own children (xinit starts the X server) can be stopped
// as a unit.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to every process in p's group, falling back to
// p alone when the group cannot be determined.
func signalGroup(p *os.Process, sig os.Signal) error {
	if p == nil {
		return nil
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.Signal(sig)
	}
	pgid, err := syscall.Getpgid(p.Pid)
	if err != nil {
		return p.Signal(sig)
	}
	return syscall.Kill(-pgid, s)
}

func killGroup(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

// exitStatus reports the shell-style status: the exit code, or 128+N for
// a process killed by signal N.
func exitStatus(state *os.ProcessState) int {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return state.ExitCode()
	}
	if ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ws.ExitStatus()
}
