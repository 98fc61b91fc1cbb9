package strand

import "testing"

func TestLocalInsertAndDelete(t *testing.T) {
	rep, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "hello"); err != nil {
		t.Fatal(err)
	}
	if got := rep.GetText(); got != "hello" {
		t.Fatalf("GetText() = %q, want %q", got, "hello")
	}

	if _, err := rep.SetTextInRange(Point{Row: 0, Column: 1}, Point{Row: 0, Column: 3}, "X"); err != nil {
		t.Fatal(err)
	}
	if got := rep.GetText(); got != "hXlo" {
		t.Fatalf("GetText() = %q, want %q", got, "hXlo")
	}
}

func TestReservedSiteIDRejected(t *testing.T) {
	if _, err := New(ReservedSiteID); err != ErrReservedSiteID {
		t.Fatalf("New(ReservedSiteID) error = %v, want ErrReservedSiteID", err)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	rep, _ := New(1)
	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "hello"); err != nil {
		t.Fatal(err)
	}

	if res := rep.Undo(); res == nil {
		t.Fatal("Undo() = nil, want a result")
	}
	if got := rep.GetText(); got != "" {
		t.Fatalf("after Undo, GetText() = %q, want empty", got)
	}

	if res := rep.Redo(); res == nil {
		t.Fatal("Redo() = nil, want a result")
	}
	if got := rep.GetText(); got != "hello" {
		t.Fatalf("after Redo, GetText() = %q, want %q", got, "hello")
	}

	if res := rep.Redo(); res != nil {
		t.Fatalf("Redo() with empty redo stack = %v, want nil", res)
	}
}

func TestConcurrentInsertionsConverge(t *testing.T) {
	repA, _ := New(1)
	opInit, err := repA.SetTextInRange(ZeroPoint, ZeroPoint, "ab")
	if err != nil {
		t.Fatal(err)
	}

	repB, _ := New(2)
	if _, err := repB.IntegrateOperations([]Operation{{Splice: &opInit}}); err != nil {
		t.Fatal(err)
	}
	if repA.GetText() != repB.GetText() {
		t.Fatalf("replicas diverged after initial sync: %q vs %q", repA.GetText(), repB.GetText())
	}

	mid := Point{Row: 0, Column: 1}
	opA, err := repA.SetTextInRange(mid, mid, "X")
	if err != nil {
		t.Fatal(err)
	}
	opB, err := repB.SetTextInRange(mid, mid, "Y")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repA.IntegrateOperations([]Operation{{Splice: &opB}}); err != nil {
		t.Fatal(err)
	}
	if _, err := repB.IntegrateOperations([]Operation{{Splice: &opA}}); err != nil {
		t.Fatal(err)
	}

	textA, textB := repA.GetText(), repB.GetText()
	if textA != textB {
		t.Fatalf("replicas diverged after exchanging concurrent inserts: %q vs %q", textA, textB)
	}
	if len(textA) != 4 {
		t.Fatalf("expected both insertions to survive, got %q", textA)
	}
}

func TestOutOfOrderDeletionDeferred(t *testing.T) {
	repA, _ := New(1)
	opInit, _ := repA.SetTextInRange(ZeroPoint, ZeroPoint, "hello world")
	opDelete, err := repA.SetTextInRange(Point{Row: 0, Column: 5}, Point{Row: 0, Column: 11}, "")
	if err != nil {
		t.Fatal(err)
	}

	repB, _ := New(2)
	// Deliver the deletion before the insertion it depends on: it must be
	// deferred, not applied against a document that doesn't contain the
	// text it targets yet.
	if _, err := repB.IntegrateOperations([]Operation{{Splice: &opDelete}}); err != nil {
		t.Fatal(err)
	}
	if !repB.HasPendingOperations() {
		t.Fatal("expected the deletion to be deferred pending its insertion dependency")
	}
	if got := repB.GetText(); got != "" {
		t.Fatalf("GetText() before the dependency arrives = %q, want empty", got)
	}

	if _, err := repB.IntegrateOperations([]Operation{{Splice: &opInit}}); err != nil {
		t.Fatal(err)
	}
	if repB.HasPendingOperations() {
		t.Fatal("deferred deletion should have been applied once its dependency arrived")
	}
	if got := repB.GetText(); got != "hello" {
		t.Fatalf("GetText() = %q, want %q", got, "hello")
	}
}

func TestGroupChangesSinceCheckpoint(t *testing.T) {
	rep, _ := New(1)
	cp := rep.CreateCheckpoint(false, nil)

	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := rep.SetTextInRange(Point{Row: 0, Column: 1}, Point{Row: 0, Column: 1}, "b"); err != nil {
		t.Fatal(err)
	}

	updates := rep.GroupChangesSinceCheckpoint(cp, true, nil)
	if len(updates) == 0 {
		t.Fatal("expected nonempty TextUpdates describing the grouped span")
	}
	if len(rep.undoStack) != 1 {
		t.Fatalf("expected the two transactions to merge into one, got %d stack entries", len(rep.undoStack))
	}

	if res := rep.Undo(); res == nil {
		t.Fatal("Undo() after grouping = nil, want a result")
	}
	if got := rep.GetText(); got != "" {
		t.Fatalf("after undoing the grouped transaction, GetText() = %q, want empty", got)
	}
}

func TestBarrierBlocksUndo(t *testing.T) {
	rep, _ := New(1)
	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "a"); err != nil {
		t.Fatal(err)
	}
	rep.CreateCheckpoint(true, nil)
	if _, err := rep.SetTextInRange(Point{Row: 0, Column: 1}, Point{Row: 0, Column: 1}, "b"); err != nil {
		t.Fatal(err)
	}

	if res := rep.Undo(); res == nil {
		t.Fatal("Undo() across the transaction above the barrier = nil, want a result")
	}
	if res := rep.Undo(); res != nil {
		t.Fatal("Undo() should refuse to cross the barrier checkpoint")
	}
	if got := rep.GetText(); got != "a" {
		t.Fatalf("GetText() = %q, want %q", got, "a")
	}
}

func TestMarkerFollowsConcurrentInsert(t *testing.T) {
	repA, _ := New(1)
	opInit, _ := repA.SetTextInRange(ZeroPoint, ZeroPoint, "hello")
	repB, _ := New(2)
	if _, err := repB.IntegrateOperations([]Operation{{Splice: &opInit}}); err != nil {
		t.Fatal(err)
	}

	// Site 1 places a marker around "ell".
	markerRange := Range{Start: Point{Row: 0, Column: 1}, End: Point{Row: 0, Column: 4}}
	repA.UpdateMarkers(1, map[LayerID]map[MarkerID]*ResolvedMarker{
		0: {0: &ResolvedMarker{Range: markerRange}},
	})

	// Site 2 inserts before the marked range; the marker must shift with it.
	opB, err := repB.SetTextInRange(ZeroPoint, ZeroPoint, "XX")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repA.IntegrateOperations([]Operation{{Splice: &opB}}); err != nil {
		t.Fatal(err)
	}

	markers := repA.GetMarkers()
	got := markers[1][0][0].Range
	want := Range{Start: Point{Row: 0, Column: 3}, End: Point{Row: 0, Column: 6}}
	if got != want {
		t.Fatalf("marker range after concurrent prefix insert = %v, want %v", got, want)
	}
}

func TestGetHistoryPopulateHistoryRoundTrip(t *testing.T) {
	rep, _ := New(1)
	if _, err := rep.SetTextInRange(ZeroPoint, ZeroPoint, "hi"); err != nil {
		t.Fatal(err)
	}

	h := rep.GetHistory(10)

	rep2, err := NewFromHistory(2, h)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := rep2.GetText(), rep.GetText(); got != want {
		t.Fatalf("restored replica text = %q, want %q", got, want)
	}
}
