package common

import (
	"testing"
	"time"
)

func TestIsFresh(t *testing.T) {
	if IsFresh(time.Time{}, time.Hour) {
		t.Error("zero time reported fresh")
	}
	if !IsFresh(time.Now().Add(-time.Minute), FreshnessToken) {
		t.Error("minute-old token reported stale")
	}
	if IsFresh(time.Now().Add(-24*time.Hour), FreshnessToken) {
		t.Error("day-old token reported fresh")
	}
}
