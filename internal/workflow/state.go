package workflow

type State int

const (
	// Idle: no file, no result.
	Idle State = iota
	// Staged: file chosen, not yet submitted.
	Staged
	// Submitting: request in flight.
	Submitting
	// Resulted: result available and rendered.
	Resulted
	// ResultModalOpen: guest-only terminal presentation state, closed
	// explicitly by the user.
	ResultModalOpen
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Staged:
		return "staged"
	case Submitting:
		return "submitting"
	case Resulted:
		return "resulted"
	case ResultModalOpen:
		return "result-modal-open"
	default:
		return "unknown"
	}
}
