package strand

// LayerID and MarkerID name a marker's place in a per-site, per-layer,
// per-marker map. They are opaque to the core; callers (host editors)
// assign their own values.
type LayerID uint32
type MarkerID uint32

// Range is a linear (start, end) pair in document Points, the form a
// host editor deals in.
type Range struct {
	Start Point
	End   Point
}

// LogicalRange is the replica's canonical, edit-stable form of a marker's
// range: two anchors that survive edits elsewhere in the document.
type LogicalRange struct {
	Start SplicePosition
	End   SplicePosition
}

// Marker is generic over its range representation: Marker[Range] is what a
// host editor sees, Marker[LogicalRange] is what the replica stores.
type Marker[R any] struct {
	Exclusive bool
	Reversed  bool
	Tailed    bool
	Range     R
}

// LogicalMarker is the form stored inside a replica.
type LogicalMarker = Marker[LogicalRange]

// ResolvedMarker is the form returned to callers.
type ResolvedMarker = Marker[Range]

// toLogical converts m's range representation, keeping its flags.
func toLogical[R any](m Marker[R], r LogicalRange) LogicalMarker {
	return LogicalMarker{Exclusive: m.Exclusive, Reversed: m.Reversed, Tailed: m.Tailed, Range: r}
}

// toResolved converts m's range representation, keeping its flags.
func toResolved[R any](m Marker[R], r Range) ResolvedMarker {
	return ResolvedMarker{Exclusive: m.Exclusive, Reversed: m.Reversed, Tailed: m.Tailed, Range: r}
}

// findSegment locates the anchor for a single linear position: if position
// lands exactly on a segment's end and preferStart is set, the anchor is
// taken at the start of the document-tree successor instead (so an
// exclusive marker's boundary doesn't capture text inserted right at that
// edge later).
func findSegment(dt *DocumentTree, position Point, preferStart bool, countOf func(SpliceID) uint32) (SplicePosition, error) {
	id, segStart, err := dt.findSegmentContainingPosition(position)
	if err != nil {
		return SplicePosition{}, err
	}
	seg := dt.arena.get(id)
	segEnd := segStart.Traverse(seg.visibleExtent(countOf))

	within := ZeroPoint
	if position.Compare(segEnd) == 0 && preferStart {
		if succ := dt.successor(id); succ != noSegment {
			id = succ
			seg = dt.arena.get(succ)
		}
	} else {
		within = segStart.Traversal(position)
	}
	return SplicePosition{SpliceID: seg.spliceID, Offset: seg.offset.Traverse(within)}, nil
}

// getLogicalRange converts a linear range into its logical (anchor) form.
func getLogicalRange(dt *DocumentTree, linear Range, isExclusive bool, countOf func(SpliceID) uint32) (LogicalRange, error) {
	start, err := findSegment(dt, linear.Start, isExclusive, countOf)
	if err != nil {
		return LogicalRange{}, err
	}
	endPreferStart := !isExclusive || linear.Start.Compare(linear.End) == 0
	end, err := findSegment(dt, linear.End, endPreferStart, countOf)
	if err != nil {
		return LogicalRange{}, err
	}
	return LogicalRange{Start: start, End: end}, nil
}

// resolveLogicalPosition converts a single anchor back into a linear
// Point: look up the piece containing the anchor's offset in its splice's
// split tree; on a boundary with preferStart, step to the split-tree
// successor piece. A visible piece resolves to its document position plus
// the offset within it; an invisible piece collapses to its document
// position (the start of whatever now occupies that spot).
func resolveLogicalPosition(dt *DocumentTree, st *SplitTree, rootOf func(SpliceID) (SegmentID, bool), pos SplicePosition, preferStart bool, countOf func(SpliceID) uint32) (Point, error) {
	root, ok := rootOf(pos.SpliceID)
	if !ok {
		return ZeroPoint, ErrSegmentNotFound
	}
	pieceID, pieceStart, err := st.findSegmentContainingOffset(root, pos.Offset)
	if err != nil {
		return ZeroPoint, err
	}
	piece := dt.arena.get(pieceID)
	pieceEnd := pieceStart.Traverse(piece.extent)
	if pos.Offset.Compare(pieceEnd) == 0 && preferStart && piece.nextSplit != noSegment {
		pieceID = piece.nextSplit
		piece = dt.arena.get(pieceID)
	}

	segStart := dt.getSegmentPosition(pieceID)
	if !piece.visible(countOf) {
		return segStart, nil
	}
	within := piece.offset.Traversal(pos.Offset)
	return segStart.Traverse(within), nil
}

// resolveLogicalRange converts a LogicalRange back into a linear Range.
func resolveLogicalRange(dt *DocumentTree, st *SplitTree, rootOf func(SpliceID) (SegmentID, bool), logical LogicalRange, isExclusive bool, countOf func(SpliceID) uint32) (Range, error) {
	start, err := resolveLogicalPosition(dt, st, rootOf, logical.Start, isExclusive, countOf)
	if err != nil {
		return Range{}, err
	}
	end, err := resolveLogicalPosition(dt, st, rootOf, logical.End, !isExclusive, countOf)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}
