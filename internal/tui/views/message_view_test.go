package views

import "testing"

func TestNearTopFiresOncePerVisit(t *testing.T) {
	mv := NewMessageView(1)

	fired := 0
	mv.SetOnNearTop(func() { fired++ })

	// A fresh view sits at scroll offset zero, inside the threshold.
	mv.maybeRequestOlder()
	mv.maybeRequestOlder()
	mv.maybeRequestOlder()
	if fired != 1 {
		t.Errorf("near-top fired %d times from repeated key presses, want 1", fired)
	}
}

func TestResetTopLatchReArmsTrigger(t *testing.T) {
	mv := NewMessageView(1)

	fired := 0
	mv.SetOnNearTop(func() { fired++ })

	mv.maybeRequestOlder()
	if fired != 1 {
		t.Fatalf("near-top fired %d times, want 1", fired)
	}

	// A failed fetch resets the latch so the user can retry in place.
	mv.ResetTopLatch()
	mv.maybeRequestOlder()
	if fired != 2 {
		t.Errorf("near-top fired %d times after reset, want 2", fired)
	}
}
