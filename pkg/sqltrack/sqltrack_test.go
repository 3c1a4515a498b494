package sqltrack

import (
	"errors"
	"testing"
)

func TestGuard_PanicsWhileRecordingDisabled(t *testing.T) {
	SetRecording(false)
	defer SetRecording(true)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected Guard to panic while recording is disabled")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrQueryTriggered) {
			t.Fatalf("expected ErrQueryTriggered, got %v", r)
		}
	}()
	Guard()
}

func TestGuard_PassesWhileRecording(t *testing.T) {
	SetRecording(true)
	Guard()
}

func TestRecord_AppendsToQueryLog(t *testing.T) {
	Reset()
	defer Reset()

	Record("SELECT 1")
	Record("SELECT 2")

	got := Queries()
	if len(got) != 2 || got[0] != "SELECT 1" || got[1] != "SELECT 2" {
		t.Fatalf("unexpected query log: %v", got)
	}
}
