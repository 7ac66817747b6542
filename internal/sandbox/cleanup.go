package sandbox

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"sentinel-sandbox/pkg/firecracker"
)

// removeArtifacts deletes the socket and config file of a run. Failures are
// logged and counted but never change the verdict.
func (o *Orchestrator) removeArtifacts(logger zerolog.Logger, rc firecracker.RunContext) {
	o.removeArtifact(logger, "socket", rc.SocketPath)
	o.removeArtifact(logger, "config", rc.ConfigPath)
}

func (o *Orchestrator) removeArtifact(logger zerolog.Logger, artifact, path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		logger.Debug().Str("artifact", artifact).Str("path", path).Msg("artifact removed")
	case errors.Is(err, fs.ErrNotExist):
	default:
		o.metrics.RecordCleanupFailure(artifact)
		logger.Warn().Err(err).Str("artifact", artifact).Str("path", path).Msg("failed to remove artifact")
	}
}
