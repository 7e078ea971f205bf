package tts

// SupervisorState represents the lifecycle state of the worker supervisor.
type SupervisorState int

const (
	// StateNotStarted indicates no worker has been started yet, or a
	// previously running worker exited and the supervisor is restartable.
	StateNotStarted SupervisorState = iota
	// StateStarting indicates a start is in flight: the worker is being
	// spawned or probed for readiness.
	StateStarting
	// StateReady indicates the worker answered a readiness probe and may
	// receive synthesis requests.
	StateReady
	// StateStopping indicates Stop is tearing the worker down.
	StateStopping
	// StateStopped indicates the worker was stopped deliberately.
	StateStopped
	// StateFailed indicates the last start attempt failed.
	StateFailed
)

// String returns the string representation of the state.
func (s SupervisorState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanStart reports whether a Start call from this state would attempt a
// spawn rather than coalesce or no-op.
func (s SupervisorState) CanStart() bool {
	return s == StateNotStarted || s == StateStopped || s == StateFailed
}

// Terminal reports whether the worker is known not to be running.
func (s SupervisorState) Terminal() bool {
	return s == StateNotStarted || s == StateStopped || s == StateFailed
}
