package synchronizer

// State is the synchronizer lifecycle stage.
type State int32

const (
	StateUninitialized State = iota
	StateBackfilling
	StateListening
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateBackfilling:
		return "BACKFILLING"
	case StateListening:
		return "LISTENING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
