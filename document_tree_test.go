package strand

import "testing"

func alwaysVisible(SpliceID) uint32 { return 0 }

func buildDocTree(t *testing.T) (*arena, *DocumentTree, SegmentID, SegmentID, SegmentID) {
	t.Helper()
	a := newArena()
	dt := newDocumentTree(a, alwaysVisible)

	id1 := a.alloc(newSegment(SpliceID{SiteID: 1, SequenceNumber: 1}, ZeroPoint, "ab", Point{Row: 0, Column: 2}))
	dt.insertBetween(noSegment, noSegment, id1)

	id2 := a.alloc(newSegment(SpliceID{SiteID: 1, SequenceNumber: 2}, ZeroPoint, "cd", Point{Row: 0, Column: 2}))
	dt.insertBetween(id1, noSegment, id2)

	id3 := a.alloc(newSegment(SpliceID{SiteID: 1, SequenceNumber: 3}, ZeroPoint, "ef", Point{Row: 0, Column: 2}))
	dt.insertBetween(noSegment, id1, id3)

	return a, dt, id1, id2, id3
}

func textOf(a *arena, ids []SegmentID) string {
	var s string
	for _, id := range ids {
		s += a.get(id).text
	}
	return s
}

func TestDocumentTreeOrderAndExtent(t *testing.T) {
	a, dt, id1, id2, id3 := buildDocTree(t)

	segments := dt.getSegments()
	if got, want := textOf(a, segments), "efabcd"; got != want {
		t.Fatalf("getSegments order = %q, want %q", got, want)
	}
	if got, want := dt.visibleExtent(), (Point{Row: 0, Column: 6}); got != want {
		t.Fatalf("visibleExtent() = %v, want %v", got, want)
	}

	if dt.getSegmentIndex(id3) != 0 || dt.getSegmentIndex(id1) != 1 || dt.getSegmentIndex(id2) != 2 {
		t.Fatalf("unexpected segment indices: id3=%d id1=%d id2=%d",
			dt.getSegmentIndex(id3), dt.getSegmentIndex(id1), dt.getSegmentIndex(id2))
	}
}

func TestDocumentTreeFindSegmentContainingPosition(t *testing.T) {
	_, dt, id1, _, _ := buildDocTree(t)

	id, segStart, err := dt.findSegmentContainingPosition(Point{Row: 0, Column: 3})
	if err != nil {
		t.Fatal(err)
	}
	if id != id1 {
		t.Fatalf("findSegmentContainingPosition({0,3}) = segment %d, want %d", id, id1)
	}
	if want := (Point{Row: 0, Column: 2}); segStart != want {
		t.Fatalf("segStart = %v, want %v", segStart, want)
	}
}

func TestDocumentTreeSuccessorPredecessor(t *testing.T) {
	_, dt, id1, id2, id3 := buildDocTree(t)

	if got := dt.successor(id3); got != id1 {
		t.Fatalf("successor(id3) = %d, want %d", got, id1)
	}
	if got := dt.successor(id1); got != id2 {
		t.Fatalf("successor(id1) = %d, want %d", got, id2)
	}
	if got := dt.successor(id2); got != noSegment {
		t.Fatalf("successor(id2) = %d, want noSegment", got)
	}
	if got := dt.predecessor(id1); got != id3 {
		t.Fatalf("predecessor(id1) = %d, want %d", got, id3)
	}
	if got := dt.predecessor(id2); got != id1 {
		t.Fatalf("predecessor(id2) = %d, want %d", got, id1)
	}
	if got := dt.predecessor(id3); got != noSegment {
		t.Fatalf("predecessor(id3) = %d, want noSegment", got)
	}
}

func TestDocumentTreeGetSegmentPosition(t *testing.T) {
	_, dt, _, id2, _ := buildDocTree(t)
	if got, want := dt.getSegmentPosition(id2), (Point{Row: 0, Column: 4}); got != want {
		t.Fatalf("getSegmentPosition(id2) = %v, want %v", got, want)
	}
}
