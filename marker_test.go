package strand

import "testing"

func singleSegmentFixture(t *testing.T, text string) (*DocumentTree, *SplitTree, SpliceID, func(SpliceID) (SegmentID, bool)) {
	t.Helper()
	a := newArena()
	dt := newDocumentTree(a, alwaysVisible)
	st := newSplitTree(a)

	endID := a.alloc(newSegment(endSentinelID, ZeroPoint, "", ZeroPoint))
	dt.insertBetween(noSegment, noSegment, endID)

	spliceID := SpliceID{SiteID: 1, SequenceNumber: 1}
	segID := a.alloc(newSegment(spliceID, ZeroPoint, text, ExtentOfString(text)))
	dt.insertBetween(noSegment, endID, segID)
	st.update(segID)

	rootOf := func(id SpliceID) (SegmentID, bool) {
		if id == spliceID {
			return segID, true
		}
		return noSegment, false
	}
	return dt, st, spliceID, rootOf
}

func TestLogicalRangeRoundTrip(t *testing.T) {
	dt, st, spliceID, rootOf := singleSegmentFixture(t, "hello")

	linear := Range{Start: Point{Row: 0, Column: 1}, End: Point{Row: 0, Column: 4}}
	logical, err := getLogicalRange(dt, linear, false, alwaysVisible)
	if err != nil {
		t.Fatal(err)
	}
	if logical.Start.SpliceID != spliceID || logical.Start.Offset != (Point{Row: 0, Column: 1}) {
		t.Fatalf("logical.Start = %v, want offset {0,1} in %v", logical.Start, spliceID)
	}
	if logical.End.Offset != (Point{Row: 0, Column: 4}) {
		t.Fatalf("logical.End = %v, want offset {0,4}", logical.End)
	}

	resolved, err := resolveLogicalRange(dt, st, rootOf, logical, false, alwaysVisible)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != linear {
		t.Fatalf("resolveLogicalRange round trip = %v, want %v", resolved, linear)
	}
}

func TestFindSegmentPreferStartAtBoundary(t *testing.T) {
	dt, _, _, _ := singleSegmentFixture(t, "hi")

	// Position 2 sits exactly at the segment's end, which is also where the
	// (zero-extent) end sentinel begins; preferStart must land the anchor
	// on that successor rather than the end of "hi" itself, so later text
	// inserted right at this boundary is excluded from the marker.
	pos, err := findSegment(dt, Point{Row: 0, Column: 2}, true, alwaysVisible)
	if err != nil {
		t.Fatal(err)
	}
	if pos.SpliceID != endSentinelID {
		t.Fatalf("findSegment at boundary = %v, want spliceID %v", pos, endSentinelID)
	}
}
