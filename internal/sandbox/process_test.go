package sandbox

import (
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestExecStarter_CapturesOutput(t *testing.T) {
	requireBinary(t, "sh")

	p, err := ExecStarter{WaitDelay: time.Second}.Start("sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	out, err := p.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if strings.TrimSpace(string(out.Stdout)) != "out" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
	if strings.TrimSpace(string(out.Stderr)) != "err" {
		t.Errorf("Stderr = %q", out.Stderr)
	}
}

func TestExecStarter_NonZeroExitIsNotAnError(t *testing.T) {
	requireBinary(t, "sh")

	p, err := ExecStarter{}.Start("sh", "-c", "echo bye; exit 3")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	out, err := p.Wait()
	if err != nil {
		t.Errorf("Wait: %v, want nil for a non-zero exit", err)
	}
	if strings.TrimSpace(string(out.Stdout)) != "bye" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
}

func TestExecStarter_KillThenWait(t *testing.T) {
	requireBinary(t, "sleep")

	p, err := ExecStarter{WaitDelay: time.Second}.Start("sleep", "30")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	if err := p.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if _, err := p.Wait(); err != nil {
		t.Errorf("Wait after kill: %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("reaping took %s", elapsed)
	}
}

func TestExecStarter_MissingBinary(t *testing.T) {
	if _, err := (ExecStarter{}).Start("/nonexistent/firecracker"); err == nil {
		t.Error("expected an error starting a missing binary")
	}
}
