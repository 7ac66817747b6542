package firecracker

import (
	"os"
	"path/filepath"
	"strconv"
)

const DefaultIDPrefix = "sentinel_"

// IDGenerator names the transient artifacts of a run.
type IDGenerator interface {
	NewID() string
}

// PIDGenerator derives ids from the host process id, so concurrent
// invocations on the same host never share artifact names.
type PIDGenerator struct {
	prefix string
	pid    func() int
}

func NewPIDGenerator(prefix string) *PIDGenerator {
	return &PIDGenerator{prefix: prefix, pid: os.Getpid}
}

func (g *PIDGenerator) NewID() string {
	return g.prefix + strconv.Itoa(g.pid())
}

// RunContext holds the on-disk artifacts of one orchestration attempt.
type RunContext struct {
	VMID       string
	SocketPath string
	ConfigPath string
}

func NewRunContext(scratchDir, vmID string) RunContext {
	return RunContext{
		VMID:       vmID,
		SocketPath: filepath.Join(scratchDir, vmID+".sock"),
		ConfigPath: filepath.Join(scratchDir, vmID+"_config.json"),
	}
}

// Args returns the VMM command line for this run.
func (rc RunContext) Args() []string {
	return []string{"--api-sock", rc.SocketPath, "--config-file", rc.ConfigPath}
}
