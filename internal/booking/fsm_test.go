package booking

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusPending, StatusAccepted) {
		t.Fatal("expected pending -> accepted to be allowed")
	}
	if !CanTransition(StatusPending, StatusRejected) {
		t.Fatal("expected pending -> rejected to be allowed")
	}
	if !CanTransition(StatusAccepted, StatusCompleted) {
		t.Fatal("expected accepted -> completed to be allowed")
	}
	if CanTransition(StatusPending, StatusCompleted) {
		t.Fatal("unexpected pending -> completed allowed")
	}
	if CanTransition(StatusAccepted, StatusPending) {
		t.Fatal("request must not re-enter pending")
	}
	if CanTransition(StatusRejected, StatusPending) {
		t.Fatal("request must not re-enter pending")
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []string{StatusRejected, StatusCompleted} {
		if !IsTerminal(status) {
			t.Fatalf("expected %s to be terminal", status)
		}
		for _, target := range []string{StatusPending, StatusAccepted, StatusRejected, StatusCompleted} {
			if CanTransition(status, target) {
				t.Fatalf("unexpected transition %s -> %s allowed", status, target)
			}
		}
	}
	if IsTerminal(StatusPending) {
		t.Fatal("pending must not be terminal")
	}
	if IsTerminal(StatusAccepted) {
		t.Fatal("accepted must not be terminal")
	}
}
