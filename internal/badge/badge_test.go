package badge

import (
	"sync"
	"testing"
	"time"
)

func TestIndicator_InitialIdle(t *testing.T) {
	ind := New(time.Second, nil)

	st := ind.Status()
	if st.State != StateIdle || st.Text != "" {
		t.Errorf("initial status = %+v, want idle", st)
	}
}

func TestIndicator_Running(t *testing.T) {
	ind := New(time.Second, nil)
	ind.SetRunning()

	st := ind.Status()
	if st.State != StateRunning {
		t.Errorf("state = %q, want running", st.State)
	}
	if st.Text == "" || st.Color == "" {
		t.Errorf("running badge must have text and color, got %+v", st)
	}
}

func TestIndicator_SuccessAutoClears(t *testing.T) {
	ind := New(30*time.Millisecond, nil)
	ind.SetSuccess()

	if st := ind.Status(); st.State != StateSuccess {
		t.Fatalf("state = %q, want success", st.State)
	}

	time.Sleep(80 * time.Millisecond)

	if st := ind.Status(); st.State != StateIdle {
		t.Errorf("state = %q, want idle after clear delay", st.State)
	}
}

func TestIndicator_FailureNeverClears(t *testing.T) {
	ind := New(20*time.Millisecond, nil)
	ind.SetFailure()

	time.Sleep(80 * time.Millisecond)

	if st := ind.Status(); st.State != StateFailure {
		t.Errorf("state = %q, failure must persist", st.State)
	}
}

func TestIndicator_TransitionCancelsAutoClear(t *testing.T) {
	ind := New(30*time.Millisecond, nil)
	ind.SetSuccess()
	ind.SetFailure() // supersedes the pending auto-clear

	time.Sleep(80 * time.Millisecond)

	if st := ind.Status(); st.State != StateFailure {
		t.Errorf("state = %q, stale auto-clear must not fire", st.State)
	}
}

func TestIndicator_OnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []State

	ind := New(20*time.Millisecond, nil, WithOnChange(func(s Status) {
		mu.Lock()
		seen = append(seen, s.State)
		mu.Unlock()
	}))

	ind.SetRunning()
	ind.SetSuccess()
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateRunning, StateSuccess, StateIdle}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, seen[i], want[i])
		}
	}
}
