package wsclient

// State is the connection lifecycle state of a Channel.
type State int

const (
	// StateIdle means no connection is wanted: either the channel was never
	// started (no address configured) or it was manually disconnected.
	StateIdle State = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateOpen means the socket is established.
	StateOpen
	// StateClosed means the socket dropped; an automatic retry may be pending.
	StateClosed
	// StateFailed is terminal until a manual Reconnect: the retry ceiling was
	// reached.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// action tells the channel what to do after a transition.
type action int

const (
	// actionNone requires no follow-up.
	actionNone action = iota
	// actionRetry means schedule a dial after the reconnect delay.
	actionRetry
	// actionFail means surface the terminal error state.
	actionFail
)

// fsm holds the reconnect bookkeeping separately from any socket so the
// ceiling and backoff decisions are testable in isolation. All methods are
// pure state transitions; the caller provides locking.
type fsm struct {
	state       State
	attempts    int
	maxAttempts int
}

func newFSM(maxAttempts int) *fsm {
	return &fsm{state: StateIdle, maxAttempts: maxAttempts}
}

// dialing marks a dial in flight. Valid from Idle, Closed and Failed (manual
// reconnect resets the counter via reset()).
func (f *fsm) dialing() {
	f.state = StateConnecting
}

// opened marks a successful handshake and resets the attempt counter.
func (f *fsm) opened() {
	f.state = StateOpen
	f.attempts = 0
}

// dropped handles both a failed dial and a lost open socket. A normal
// (manual or server-clean) closure parks the channel in Closed with no retry.
// Otherwise the attempt counter advances and the caller is told to retry
// until the ceiling is hit.
func (f *fsm) dropped(normal bool) action {
	if normal {
		f.state = StateClosed
		return actionNone
	}
	f.attempts++
	if f.attempts >= f.maxAttempts {
		f.state = StateFailed
		return actionFail
	}
	f.state = StateClosed
	return actionRetry
}

// idle parks the channel after a manual disconnect. No error, no retry.
func (f *fsm) idle() {
	f.state = StateIdle
	f.attempts = 0
}

// reset clears the attempt counter for a manual reconnect.
func (f *fsm) reset() {
	f.attempts = 0
}
