package sandbox

import (
	"errors"
	"fmt"

	"sentinel-sandbox/internal/assets"
)

// Sentinel errors for typed error checking.
var (
	ErrDependencyMissing = errors.New("dependency missing")
	ErrAssetMissing      = assets.ErrMissing
	ErrConfigWrite       = errors.New("vm config write failed")
	ErrSpawn             = errors.New("vmm spawn failed")
)

// OrchestrationError wraps a failed step with the run it belongs to. Both
// the taxonomy kind and the underlying cause match with errors.Is.
type OrchestrationError struct {
	VMID string
	Op   string // The operation that failed
	Kind error
	Err  error
}

func (e *OrchestrationError) Error() string {
	if e.VMID != "" {
		return fmt.Sprintf("vm %s: %s: %s", e.VMID, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *OrchestrationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// errorType returns the metrics label for err.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrDependencyMissing):
		return "dependency_missing"
	case errors.Is(err, ErrAssetMissing):
		return "asset_missing"
	case errors.Is(err, ErrConfigWrite):
		return "config_write"
	case errors.Is(err, ErrSpawn):
		return "spawn"
	default:
		return "internal"
	}
}

// describeFailure returns the verdict details and the single indicator for err.
func describeFailure(err error) (details, indicator string) {
	cause := err
	var oe *OrchestrationError
	if errors.As(err, &oe) && oe.Err != nil {
		cause = oe.Err
	}

	switch {
	case errors.Is(err, ErrDependencyMissing):
		return "Firecracker not installed.", "Analysis failed - Firecracker not installed"
	case errors.Is(err, ErrAssetMissing):
		var me *assets.MissingError
		if errors.As(err, &me) {
			return fmt.Sprintf("Firecracker %s not found at %s. Run firecracker_setup.sh first.", me.Which, me.Path),
				"Analysis failed - Setup incomplete"
		}
		return "Firecracker assets not found. Run firecracker_setup.sh first.", "Analysis failed - Setup incomplete"
	case errors.Is(err, ErrConfigWrite):
		return fmt.Sprintf("Failed to write VM config: %v", cause), "Analysis failed - VM setup error"
	case errors.Is(err, ErrSpawn):
		return fmt.Sprintf("Failed to start Firecracker: %v", cause), "Analysis failed - VM execution error"
	default:
		return fmt.Sprintf("Analysis failed: %v", err), "Analysis failed - internal error"
	}
}
