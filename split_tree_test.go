package strand

import "testing"

func TestSplitTreeSplitSegment(t *testing.T) {
	a := newArena()
	st := newSplitTree(a)

	spliceID := SpliceID{SiteID: 1, SequenceNumber: 1}
	segID := a.alloc(newSegment(spliceID, ZeroPoint, "hello", Point{Row: 0, Column: 5}))
	st.update(segID)
	root := segID

	newRoot, suffixID := st.splitSegment(root, segID, Point{Row: 0, Column: 2})
	if newRoot != suffixID {
		t.Fatalf("splitSegment should report the suffix as the new root, got newRoot=%d suffixID=%d", newRoot, suffixID)
	}

	prefix := a.get(segID)
	suffix := a.get(suffixID)
	if prefix.text != "he" {
		t.Fatalf("prefix text = %q, want %q", prefix.text, "he")
	}
	if suffix.text != "llo" {
		t.Fatalf("suffix text = %q, want %q", suffix.text, "llo")
	}
	if suffix.spliceID != spliceID {
		t.Fatal("suffix should keep the original segment's spliceID")
	}
	if prefix.nextSplit != suffixID {
		t.Fatalf("prefix.nextSplit = %d, want %d", prefix.nextSplit, suffixID)
	}

	segments := st.getSegments(newRoot)
	if len(segments) != 2 || segments[0] != segID || segments[1] != suffixID {
		t.Fatalf("getSegments order = %v, want [%d %d]", segments, segID, suffixID)
	}

	if got, want := a.get(newRoot).splitSubtreeExtent, (Point{Row: 0, Column: 5}); got != want {
		t.Fatalf("splitSubtreeExtent after split = %v, want %v", got, want)
	}
}

func TestSplitTreeFindSegmentContainingOffset(t *testing.T) {
	a := newArena()
	st := newSplitTree(a)

	spliceID := SpliceID{SiteID: 1, SequenceNumber: 1}
	segID := a.alloc(newSegment(spliceID, ZeroPoint, "hello", Point{Row: 0, Column: 5}))
	st.update(segID)
	root, suffixID := st.splitSegment(segID, segID, Point{Row: 0, Column: 2})

	id, segStart, err := st.findSegmentContainingOffset(root, Point{Row: 0, Column: 3})
	if err != nil {
		t.Fatal(err)
	}
	if id != suffixID {
		t.Fatalf("findSegmentContainingOffset({0,3}) = segment %d, want %d", id, suffixID)
	}
	if want := (Point{Row: 0, Column: 2}); segStart != want {
		t.Fatalf("segStart = %v, want %v", segStart, want)
	}

	id, segStart, err = st.findSegmentContainingOffset(root, Point{Row: 0, Column: 0})
	if err != nil {
		t.Fatal(err)
	}
	if id != segID {
		t.Fatalf("findSegmentContainingOffset({0,0}) = segment %d, want %d", id, segID)
	}
	if !segStart.IsZero() {
		t.Fatalf("segStart = %v, want zero", segStart)
	}
}
