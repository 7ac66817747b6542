package sandbox

import (
	"time"

	"github.com/rs/zerolog"
)

// ObservationWindow is how long the VMM runs before it is killed.
const ObservationWindow = 3 * time.Second

type phase int

const (
	phaseSpawned phase = iota
	phaseObserving
	phaseTerminating
	phaseReaped
)

func (p phase) String() string {
	switch p {
	case phaseSpawned:
		return "spawned"
	case phaseObserving:
		return "observing"
	case phaseTerminating:
		return "terminating"
	case phaseReaped:
		return "reaped"
	default:
		return "unknown"
	}
}

// observation drives one spawned VMM through Spawned, Observing,
// Terminating and Reaped. Every path ends in Reaped, so the process is
// always waited on.
type observation struct {
	proc   Process
	clock  Clock
	window time.Duration
	logger zerolog.Logger

	state  phase
	output Output
	err    error
}

func newObservation(proc Process, clock Clock, window time.Duration, logger zerolog.Logger) *observation {
	return &observation{
		proc:   proc,
		clock:  clock,
		window: window,
		logger: logger,
		state:  phaseSpawned,
	}
}

// run blocks until the process is reaped and returns what it wrote. The
// error is non-nil only when waiting on the process failed.
func (o *observation) run() (Output, error) {
	for o.step() {
	}
	return o.output, o.err
}

func (o *observation) step() bool {
	switch o.state {
	case phaseSpawned:
		o.transition(phaseObserving)
	case phaseObserving:
		o.clock.Sleep(o.window)
		o.transition(phaseTerminating)
	case phaseTerminating:
		// The VMM may have exited on its own during the window.
		if err := o.proc.Kill(); err != nil {
			o.logger.Warn().Err(err).Msg("failed to signal vmm")
		}
		o.output, o.err = o.proc.Wait()
		o.transition(phaseReaped)
	case phaseReaped:
		return false
	}
	return true
}

func (o *observation) transition(next phase) {
	o.logger.Debug().Stringer("from", o.state).Stringer("to", next).Msg("vm lifecycle")
	o.state = next
}
