package wsclient

import "testing"

func TestFSMRetriesUntilCeiling(t *testing.T) {
	f := newFSM(5)
	f.dialing()

	// Four non-normal drops: each schedules a retry.
	for i := 1; i < 5; i++ {
		if act := f.dropped(false); act != actionRetry {
			t.Fatalf("drop %d: expected retry, got %v", i, act)
		}
		if f.state != StateClosed {
			t.Fatalf("drop %d: expected closed state, got %v", i, f.state)
		}
		f.dialing()
	}

	// Fifth drop hits the ceiling.
	if act := f.dropped(false); act != actionFail {
		t.Fatalf("expected fail at ceiling, got %v", act)
	}
	if f.state != StateFailed {
		t.Fatalf("expected failed state, got %v", f.state)
	}

	// Once failed, further drops stay failed.
	if act := f.dropped(false); act != actionFail {
		t.Errorf("expected fail to be sticky, got %v", act)
	}
}

func TestFSMOpenResetsAttempts(t *testing.T) {
	f := newFSM(2)
	f.dialing()
	if act := f.dropped(false); act != actionRetry {
		t.Fatalf("expected retry, got %v", act)
	}

	f.dialing()
	f.opened()
	if f.state != StateOpen {
		t.Fatalf("expected open, got %v", f.state)
	}
	if f.attempts != 0 {
		t.Fatalf("expected attempts reset on open, got %d", f.attempts)
	}

	// A fresh drop after a successful open starts counting from zero again.
	if act := f.dropped(false); act != actionRetry {
		t.Errorf("expected retry after open reset the counter, got %v", act)
	}
}

func TestFSMNormalCloseDoesNotRetry(t *testing.T) {
	f := newFSM(5)
	f.dialing()
	f.opened()

	if act := f.dropped(true); act != actionNone {
		t.Fatalf("expected no action on normal close, got %v", act)
	}
	if f.state != StateClosed {
		t.Fatalf("expected closed, got %v", f.state)
	}
	if f.attempts != 0 {
		t.Errorf("normal close must not consume an attempt, got %d", f.attempts)
	}
}

func TestFSMIdleClearsCounter(t *testing.T) {
	f := newFSM(5)
	f.dialing()
	f.dropped(false)
	f.idle()

	if f.state != StateIdle {
		t.Fatalf("expected idle, got %v", f.state)
	}
	if f.attempts != 0 {
		t.Errorf("expected counter cleared, got %d", f.attempts)
	}
}

func TestFSMResetAllowsFullRetryBudget(t *testing.T) {
	f := newFSM(2)
	f.dialing()
	f.dropped(false)
	f.dialing()
	if act := f.dropped(false); act != actionFail {
		t.Fatalf("expected fail, got %v", act)
	}

	// Manual reconnect path: reset, then the full budget is available again.
	f.reset()
	f.dialing()
	if act := f.dropped(false); act != actionRetry {
		t.Errorf("expected retry after reset, got %v", act)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:       "idle",
		StateConnecting: "connecting",
		StateOpen:       "open",
		StateClosed:     "closed",
		StateFailed:     "failed",
		State(99):       "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
