package rules

import (
	"testing"
	"time"
)

func TestAgeAtBeforeAndAfterBirthday(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	if got := AgeAt(birth, time.Date(2026, 6, 14, 23, 0, 0, 0, time.UTC)); got != 25 {
		t.Fatalf("unexpected age before birthday: got %d want 25", got)
	}
	if got := AgeAt(birth, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)); got != 26 {
		t.Fatalf("unexpected age on birthday: got %d want 26", got)
	}
}

func TestAgeAtZeroBirthdate(t *testing.T) {
	if got := AgeAt(time.Time{}, time.Now()); got != 0 {
		t.Fatalf("unexpected age: got %d want 0", got)
	}
}
