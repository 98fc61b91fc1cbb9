package strand

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// SegmentID indexes into a replica's segment arena. Segments are created at
// insertion/split time and are never deallocated while the replica lives
// (the operation log is append-only; deleted segments remain as
// tombstones), so a SegmentID remains valid for the lifetime of the
// replica.
type SegmentID int32

// noSegment is the sentinel "no segment" reference, analogous to a nil
// pointer but usable as a map/slice-friendly value.
const noSegment SegmentID = -1

// Segment is the atomic unit of text produced by one splice. Later
// concurrent insertions may split it further; each resulting piece is its
// own Segment sharing the splice's SpliceID but with a growing Offset.
type Segment struct {
	id       SegmentID
	spliceID SpliceID

	// offset is this segment's position within its originating splice's
	// text. Splitting a segment produces a suffix segment with a larger
	// offset.
	offset Point
	text   string
	extent Point

	// deletions is the set of SpliceIDs whose deletion operations
	// currently cover this segment.
	deletions mapset.Set[SpliceID]

	// leftDependency/rightDependency are the segments that bounded the
	// insertion point at the time this segment's splice was created; they
	// establish the segment's causal position for the integration
	// ordering rule (see replica.go).
	leftDependency  SegmentID
	rightDependency SegmentID

	// Document tree embedding (global ordered index).
	docParent SegmentID
	docLeft   SegmentID
	docRight  SegmentID

	// docSubtreeVisibleExtent/docSubtreeSize are aggregates over this
	// segment's document-tree subtree (inclusive of the segment itself).
	docSubtreeVisibleExtent Point
	docSubtreeSize          int64

	// Split tree embedding (per-splice chain of pieces).
	splitParent SegmentID
	splitLeft   SegmentID
	splitRight  SegmentID

	// splitSubtreeExtent is the raw (visibility-agnostic) extent
	// aggregate over this segment's split-tree subtree.
	splitSubtreeExtent Point

	// nextSplit is the linear successor within the same splice's split
	// tree, kept as an O(1) shortcut alongside the split tree proper.
	nextSplit SegmentID
}

// visible reports whether seg is currently visible: its own splice's undo
// count is even, and every SpliceID recorded in its deletions has an odd
// undo count (the deletion itself has been undone). count resolves the
// undo count for a SpliceID, letting callers substitute a pending-change
// override map without mutating shared state.
func (seg *Segment) visible(count func(SpliceID) uint32) bool {
	if count(seg.spliceID)%2 != 0 {
		return false
	}
	visible := true
	seg.deletions.Each(func(id SpliceID) bool {
		if count(id)%2 == 0 {
			visible = false
			return true
		}
		return false
	})
	return visible
}

// visibleExtent returns seg's own extent if it is visible under count, or
// the zero Point otherwise.
func (seg *Segment) visibleExtent(count func(SpliceID) uint32) Point {
	if seg.visible(count) {
		return seg.extent
	}
	return ZeroPoint
}

// newSegment returns a Segment with every tree-link field defaulted to
// noSegment. Go's zero value for SegmentID is 0, a valid arena index, so a
// bare struct literal would silently wire a fresh segment's links to
// whichever segment happens to occupy slot 0 (the start sentinel) instead
// of leaving them unset; every construction site must go through this
// constructor rather than a raw literal.
func newSegment(spliceID SpliceID, offset Point, text string, extent Point) Segment {
	return Segment{
		spliceID:        spliceID,
		offset:          offset,
		text:            text,
		extent:          extent,
		deletions:       mapset.NewThreadUnsafeSet[SpliceID](),
		leftDependency:  noSegment,
		rightDependency: noSegment,
		docParent:       noSegment,
		docLeft:         noSegment,
		docRight:        noSegment,
		splitParent:     noSegment,
		splitLeft:       noSegment,
		splitRight:      noSegment,
		nextSplit:       noSegment,
	}
}

// arena owns every Segment ever created by a replica, keyed by a stable
// SegmentID. It is never compacted: segments remain reachable for undo,
// marker anchors, and future operations that depend on them.
type arena struct {
	segments []Segment
}

func newArena() *arena {
	return &arena{segments: make([]Segment, 0, 64)}
}

// get returns the segment for id. It panics on an invalid id, which would
// indicate an internal invariant violation (a caller should check against
// noSegment first).
func (a *arena) get(id SegmentID) *Segment {
	return &a.segments[id]
}

// alloc appends a new segment to the arena and returns its id.
func (a *arena) alloc(seg Segment) SegmentID {
	id := SegmentID(len(a.segments))
	seg.id = id
	if seg.deletions == nil {
		seg.deletions = mapset.NewThreadUnsafeSet[SpliceID]()
	}
	a.segments = append(a.segments, seg)
	return id
}

// splitTextAtPoint splits s into the text before and at-or-after the given
// Point offset (measured from the start of s), following the same
// row/column walk as ExtentOfString.
func splitTextAtPoint(s string, at Point) (before, after string) {
	if at.IsZero() {
		return "", s
	}
	var row, col int64
	for i, r := range s {
		if row == at.Row && col == at.Column {
			return s[:i], s[i:]
		}
		if r == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return s, ""
}
