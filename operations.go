package strand

// TextInsertionMod describes the insertion half of a SpliceOperation: the
// inserted text plus the two segments (identified by SpliceID + offset
// within that splice) that bounded the insertion point at creation time.
type TextInsertionMod struct {
	Text                    string
	LeftDependencyID        SpliceID
	OffsetInLeftDependency  Point
	RightDependencyID       SpliceID
	OffsetInRightDependency Point
}

// TextDeletionMod describes the deletion half of a SpliceOperation.
// MaxSequenceNumberBySite is the per-site causal frontier the deleting
// replica had observed when forming the deletion; integrating replicas use
// it to decide which segments the deletion covers.
type TextDeletionMod struct {
	MaxSequenceNumberBySite map[uint32]uint32
	LeftDependencyID        SpliceID
	OffsetInLeftDependency  Point
	RightDependencyID       SpliceID
	OffsetInRightDependency Point
}

// SpliceOperation is the wire-level record of one local edit. A splice may
// carry a deletion, an insertion, or both (SetTextInRange with a nonempty
// range and nonempty replacement text produces both, sharing one
// SpliceID).
type SpliceOperation struct {
	SpliceID  SpliceID
	Deletion  *TextDeletionMod
	Insertion *TextInsertionMod
}

// UndoOperation carries the new absolute undo count for a splice.
// Integration uses max-wins: an incoming count lower than what's already
// recorded is a no-op.
type UndoOperation struct {
	SpliceID  SpliceID
	UndoCount uint32
}

// MarkersUpdateOperation carries one site's marker changes across layers.
// The nil/absent distinctions in Updates carry meaning:
//
//   - a layer id absent from Updates: that layer is unchanged
//   - a layer id present with a nil map: remove that entire layer
//   - within a present layer, a marker id absent: that marker is unchanged
//   - within a present layer, a marker id mapped to nil: remove that marker
//   - within a present layer, a marker id mapped to non-nil: upsert it
type MarkersUpdateOperation struct {
	SiteID  uint32
	Updates map[LayerID]map[MarkerID]*LogicalMarker
}

// Operation is the closed set of values a replica integrates or replays:
// exactly one of Splice, Undo, or MarkersUpdate is set. Modeled as a
// tagged struct rather than an interface, mirroring how SpliceOperation
// itself distinguishes Deletion/Insertion: this is meant to be a closed
// sum type, and a small fixed set of mutually exclusive fields switched
// on directly is Go's nearest equivalent to compiler-checked
// exhaustiveness here.
type Operation struct {
	Splice        *SpliceOperation
	Undo          *UndoOperation
	MarkersUpdate *MarkersUpdateOperation
}

// TextUpdate describes one coalesced change to the host editor's linear
// buffer: replace the text in [OldStart, OldEnd), which currently reads
// OldText, with NewText, which will occupy [NewStart, NewEnd) afterward.
type TextUpdate struct {
	OldStart Point
	OldEnd   Point
	OldText  string
	NewStart Point
	NewEnd   Point
	NewText  string
}

// DocumentStateUpdate is returned by IntegrateOperations: the linear text
// changes the host editor must apply, plus any marker ranges that moved or
// changed as a result.
type DocumentStateUpdate struct {
	TextUpdates   []TextUpdate
	MarkerUpdates map[uint32]map[LayerID]map[MarkerID]*ResolvedMarker
}

// UndoRedoResult is returned by Undo, Redo, and RevertToCheckpoint: the
// counter-operations to broadcast, the linear text changes they produce,
// and the marker state snapshotted alongside the transaction (nil if the
// transaction carried none).
type UndoRedoResult struct {
	Operations  []UndoOperation
	TextUpdates []TextUpdate
	Markers     map[LayerID]map[MarkerID]*ResolvedMarker
}
