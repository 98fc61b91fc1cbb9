package strand

import (
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newManualClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(5 * time.Second)
	want := start.Add(5 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("after Advance, Now() = %v, want %v", got, want)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Fatalf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestApplyGroupingIntervalMergesCloseEdits(t *testing.T) {
	rep, _ := New(1)
	clock := newManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rep.clock = clock

	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "a"); err != nil {
		t.Fatal(err)
	}
	rep.ApplyGroupingInterval(time.Second)

	clock.Advance(100 * time.Millisecond)
	if _, err := rep.SetTextInRange(Point{Row: 0, Column: 1}, Point{Row: 0, Column: 1}, "b"); err != nil {
		t.Fatal(err)
	}
	rep.ApplyGroupingInterval(time.Second)

	if len(rep.undoStack) != 1 {
		t.Fatalf("edits within the grouping interval should merge into one undo entry, got %d", len(rep.undoStack))
	}

	if res := rep.Undo(); res == nil {
		t.Fatal("Undo() = nil, want a result")
	}
	if got := rep.GetText(); got != "" {
		t.Fatalf("undoing the merged entry should remove both edits, GetText() = %q", got)
	}
}

func TestApplyGroupingIntervalDoesNotMergeFarApartEdits(t *testing.T) {
	rep, _ := New(1)
	clock := newManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rep.clock = clock

	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "a"); err != nil {
		t.Fatal(err)
	}
	rep.ApplyGroupingInterval(time.Second)

	clock.Advance(10 * time.Second)
	if _, err := rep.SetTextInRange(Point{Row: 0, Column: 1}, Point{Row: 0, Column: 1}, "b"); err != nil {
		t.Fatal(err)
	}
	rep.ApplyGroupingInterval(time.Second)

	if len(rep.undoStack) != 2 {
		t.Fatalf("edits outside the grouping interval should stay separate, got %d entries", len(rep.undoStack))
	}
}
