package sandbox

import (
	"bytes"
	"errors"
	"os/exec"
	"time"
)

// Output is what the VMM wrote before it was reaped.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Process is a running VMM.
type Process interface {
	Kill() error
	// Wait blocks until the process exits and returns its captured output.
	// Exiting because of the kill is not an error.
	Wait() (Output, error)
}

// ProcessStarter spawns the VMM.
type ProcessStarter interface {
	Start(name string, args ...string) (Process, error)
}

// Clock is the time source for the observation window.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// ExecStarter starts processes with os/exec, buffering stdout and stderr.
type ExecStarter struct {
	// WaitDelay bounds how long Wait keeps reading pipes inherited by
	// grandchildren after the VMM itself is gone.
	WaitDelay time.Duration
}

func (s ExecStarter) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- binary from config, args built by firecracker.RunContext
	p := &execProcess{cmd: cmd}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr
	cmd.WaitDelay = s.WaitDelay

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait() (Output, error) {
	err := p.cmd.Wait()
	out := Output{Stdout: p.stdout.Bytes(), Stderr: p.stderr.Bytes()}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return out, err
	}
	return out, nil
}
