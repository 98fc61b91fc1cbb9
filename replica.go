package strand

import (
	"sort"
	"strings"

	"github.com/tidwall/btree"
)

// spliceRootEntry and undoCountEntry are the key-value pairs stored in the
// two ordered registries a replica keeps over its splices. tidwall/btree's
// BTreeG orders by a caller-supplied less function over the whole item, so
// (as in the LSEQ list CRDT this pattern is grounded on) a lookup is done
// by constructing a zero-value item carrying only the search key.
type spliceRootEntry struct {
	key uint64
	seg SegmentID
}

type undoCountEntry struct {
	key   uint64
	count uint32
}

func lessSpliceRootEntry(a, b spliceRootEntry) bool { return a.key < b.key }
func lessUndoCountEntry(a, b undoCountEntry) bool   { return a.key < b.key }

// Replica is one site's full copy of a shared document: the CRDT segment
// graph, its two tree indices, the undo/redo stacks, and the per-site
// marker state. It is not safe for concurrent use from multiple
// goroutines: a Replica is owned by one caller at a time, which is
// responsible for its own locking if it shares a Replica across
// goroutines.
type Replica struct {
	siteID                  uint32
	nextSequenceNumber      uint32
	maxSequenceNumberBySite map[uint32]uint32

	arena     *arena
	docTree   *DocumentTree
	splitTree *SplitTree

	// spliceRoots maps a splice to the current root of its split tree.
	// Only insertion splices (plus the two sentinels) ever appear here;
	// deletion-only splices never allocate segments of their own.
	spliceRoots *btree.BTreeG[spliceRootEntry]

	// undoCounts maps a splice to its current undo count. A splice absent
	// from this tree has count 0 (live).
	undoCounts *btree.BTreeG[undoCountEntry]

	// deletedBy is the reverse index of Segment.deletions: which segments
	// currently carry a given splice in their deletions set. Needed to
	// recompute visibility when that splice's undo count changes.
	deletedBy map[uint64][]SegmentID

	// operations is the append-only log of every splice and undo this
	// replica has integrated (locally produced or remote), used by
	// GetOperations.
	operations []Operation

	undoStack         []UndoRecord
	redoStack         []UndoRecord
	nextCheckpointSeq uint64

	markers          map[uint32]map[LayerID]map[MarkerID]LogicalMarker
	deferredMarkers  map[markerKey]*LogicalMarker
	deferredMarkerDeps map[uint64][]markerKey

	// deferredOps files not-yet-ready operations under every
	// missing-dependency SpliceID they carry.
	deferredOps map[uint64][]Operation

	clock Clock
}

// markerKey names one site's marker within one layer, used as the key for
// deferred-update bookkeeping.
type markerKey struct {
	Site   uint32
	Layer  LayerID
	Marker MarkerID
}

// New constructs an empty replica for siteID, which must not be the
// reserved sentinel site.
func New(siteID uint32) (*Replica, error) {
	if siteID == ReservedSiteID {
		return nil, ErrReservedSiteID
	}
	return newEmptyReplica(siteID), nil
}

// NewWithText constructs a replica for siteID whose document already
// contains text, discarding the undo stack the initial insertion would
// otherwise leave behind.
func NewWithText(siteID uint32, text string) (*Replica, error) {
	r, err := New(siteID)
	if err != nil {
		return nil, err
	}
	if _, err := r.SetTextInRange(ZeroPoint, ZeroPoint, text); err != nil {
		return nil, err
	}
	r.undoStack = nil
	r.redoStack = nil
	return r, nil
}

// NewFromHistory constructs a replica for siteID and restores h onto it.
func NewFromHistory(siteID uint32, h History) (*Replica, error) {
	r, err := New(siteID)
	if err != nil {
		return nil, err
	}
	if h.BaseText != nil {
		if _, err := r.SetTextInRange(ZeroPoint, ZeroPoint, *h.BaseText); err != nil {
			return nil, err
		}
		r.undoStack = nil
		r.redoStack = nil
	}
	if err := r.PopulateHistory(h); err != nil {
		return nil, err
	}
	return r, nil
}

func newEmptyReplica(siteID uint32) *Replica {
	a := newArena()
	r := &Replica{
		siteID:                  siteID,
		nextSequenceNumber:      1,
		maxSequenceNumberBySite: map[uint32]uint32{},
		arena:                   a,
		spliceRoots:             btree.NewBTreeG(lessSpliceRootEntry),
		undoCounts:              btree.NewBTreeG(lessUndoCountEntry),
		deletedBy:               map[uint64][]SegmentID{},
		markers:                 map[uint32]map[LayerID]map[MarkerID]LogicalMarker{},
		deferredMarkers:         map[markerKey]*LogicalMarker{},
		deferredMarkerDeps:      map[uint64][]markerKey{},
		deferredOps:             map[uint64][]Operation{},
		clock:                   systemClock{},
	}
	r.docTree = newDocumentTree(a, r.undoCountOf)
	r.splitTree = newSplitTree(a)

	startID := a.alloc(newSegment(startSentinelID, ZeroPoint, "", ZeroPoint))
	endID := a.alloc(newSegment(endSentinelID, ZeroPoint, "", ZeroPoint))
	r.docTree.insertBetween(noSegment, noSegment, startID)
	r.docTree.insertBetween(startID, noSegment, endID)
	r.setRoot(startSentinelID, startID)
	r.setRoot(endSentinelID, endID)
	return r
}

// SiteID returns the replica's own site id.
func (r *Replica) SiteID() uint32 { return r.siteID }

// HasPendingOperations reports whether any remote operation is currently
// deferred awaiting a missing dependency.
func (r *Replica) HasPendingOperations() bool { return len(r.deferredOps) > 0 }

// spliceKey packs a SpliceID into a single ordered key for the btree-based
// registries: siteId in the high 32 bits, sequenceNumber in the low 32.
func spliceKey(id SpliceID) uint64 {
	return uint64(id.SiteID)<<32 | uint64(id.SequenceNumber)
}

func (r *Replica) rootFor(id SpliceID) (SegmentID, bool) {
	item, ok := r.spliceRoots.Get(spliceRootEntry{key: spliceKey(id)})
	return item.seg, ok
}

func (r *Replica) setRoot(id SpliceID, root SegmentID) {
	r.spliceRoots.Set(spliceRootEntry{key: spliceKey(id), seg: root})
}

func (r *Replica) undoCountOf(id SpliceID) uint32 {
	item, ok := r.undoCounts.Get(undoCountEntry{key: spliceKey(id)})
	if !ok {
		return 0
	}
	return item.count
}

// GetText concatenates the text of every visible segment in document
// order.
func (r *Replica) GetText() string {
	var b strings.Builder
	for _, id := range r.docTree.getSegments() {
		seg := r.arena.get(id)
		if seg.visible(r.undoCountOf) {
			b.WriteString(seg.text)
		}
	}
	return b.String()
}

// SetTextInRange applies a local edit: delete [start,end) if it is
// nonempty, then insert text at start. It allocates the next SpliceId for
// this site, pushes a single-operation TransactionRecord, and clears the
// redo stack.
func (r *Replica) SetTextInRange(start, end Point, text string) (SpliceOperation, error) {
	spliceID := SpliceID{SiteID: r.siteID, SequenceNumber: r.nextSequenceNumber}
	if r.maxSequenceNumberBySite[r.siteID] != spliceID.SequenceNumber-1 {
		return SpliceOperation{}, ErrOutOfOrderLocalOperation
	}

	op := SpliceOperation{SpliceID: spliceID}
	if end.Compare(start) > 0 {
		mod, err := r.applyLocalDeletion(spliceID, start, end)
		if err != nil {
			return SpliceOperation{}, err
		}
		op.Deletion = mod
	}
	if text != "" {
		mod, err := r.applyLocalInsertion(spliceID, start, text)
		if err != nil {
			return SpliceOperation{}, err
		}
		op.Insertion = mod
	}

	r.maxSequenceNumberBySite[r.siteID] = spliceID.SequenceNumber
	r.nextSequenceNumber++
	r.operations = append(r.operations, Operation{Splice: &op})

	r.undoStack = append(r.undoStack, UndoRecord{Transaction: &TransactionRecord{
		Timestamp:  r.clock.Now(),
		Operations: []recordedOperation{{Splice: &op}},
	}})
	r.redoStack = nil

	return op, nil
}

// splitAtPosition ensures a document-tree segment boundary exists exactly
// at p, splitting the containing segment if p falls strictly inside it,
// and returns the segment beginning at p.
func (r *Replica) splitAtPosition(p Point) (SegmentID, error) {
	segID, segStart, err := r.docTree.findSegmentContainingPosition(p)
	if err != nil {
		return noSegment, err
	}
	if segStart.Compare(p) == 0 {
		return segID, nil
	}
	seg := r.arena.get(segID)
	within := segStart.Traversal(p)
	root, ok := r.rootFor(seg.spliceID)
	if !ok {
		return noSegment, ErrSegmentNotFound
	}
	newRoot, suffixID := r.splitTree.splitSegment(root, segID, within)
	r.setRoot(seg.spliceID, newRoot)
	r.docTree.splitSegment(segID, suffixID)
	r.indexSplitDeletions(suffixID)
	return suffixID, nil
}

// indexSplitDeletions records a freshly split-off suffix in deletedBy under
// every deletion it inherited from its prefix.
func (r *Replica) indexSplitDeletions(suffixID SegmentID) {
	r.arena.get(suffixID).deletions.Each(func(id SpliceID) bool {
		k := spliceKey(id)
		r.deletedBy[k] = append(r.deletedBy[k], suffixID)
		return false
	})
}

// splitAtOffset is splitAtPosition's split-tree analog: it ensures a
// boundary exists at offset within spliceID's split tree and returns the
// piece beginning there.
func (r *Replica) splitAtOffset(spliceID SpliceID, offset Point) (SegmentID, error) {
	root, ok := r.rootFor(spliceID)
	if !ok {
		return noSegment, ErrSegmentNotFound
	}
	pieceID, pieceStart, err := r.splitTree.findSegmentContainingOffset(root, offset)
	if err != nil {
		return noSegment, err
	}
	if pieceStart.Compare(offset) == 0 {
		return pieceID, nil
	}
	within := pieceStart.Traversal(offset)
	newRoot, suffixID := r.splitTree.splitSegment(root, pieceID, within)
	r.setRoot(spliceID, newRoot)
	r.docTree.splitSegment(pieceID, suffixID)
	r.indexSplitDeletions(suffixID)
	return suffixID, nil
}

// findDependencyStart resolves a (spliceId, offset) dependency anchor to
// the segment beginning exactly at offset.
func (r *Replica) findDependencyStart(spliceID SpliceID, offset Point) (SegmentID, error) {
	return r.splitAtOffset(spliceID, offset)
}

// findDependencyEnd resolves a (spliceId, offset) dependency anchor to the
// segment ending exactly at offset: the split-tree predecessor of the
// segment beginning there, or, if offset is the start of spliceId's own
// text, that first piece itself (only a zero-extent piece, such as the
// start sentinel, ends at offset 0).
func (r *Replica) findDependencyEnd(spliceID SpliceID, offset Point) (SegmentID, error) {
	startID, err := r.splitAtOffset(spliceID, offset)
	if err != nil {
		return noSegment, err
	}
	root, ok := r.rootFor(spliceID)
	if !ok {
		return noSegment, ErrSegmentNotFound
	}
	root = r.splitTree.splayUp(root, startID)
	r.setRoot(spliceID, root)
	seg := r.arena.get(startID)
	if seg.splitLeft == noSegment {
		return startID, nil
	}
	return rightmost(r.splitTree, seg.splitLeft), nil
}

func (r *Replica) applyLocalDeletion(spliceID SpliceID, start, end Point) (*TextDeletionMod, error) {
	leftID, err := r.splitAtPosition(start)
	if err != nil {
		return nil, err
	}
	afterEndID, err := r.splitAtPosition(end)
	if err != nil {
		return nil, err
	}
	rightID := r.docTree.predecessor(afterEndID)
	if rightID == noSegment {
		rightID = leftID
	}

	maxSeq := map[uint32]uint32{}
	cur := leftID
	for {
		seg := r.arena.get(cur)
		seg.deletions.Add(spliceID)
		r.deletedBy[spliceKey(spliceID)] = append(r.deletedBy[spliceKey(spliceID)], cur)
		if seg.spliceID.SequenceNumber > maxSeq[seg.spliceID.SiteID] {
			maxSeq[seg.spliceID.SiteID] = seg.spliceID.SequenceNumber
		}
		r.docTree.splayUp(cur)
		r.docTree.update(cur)
		if cur == rightID {
			break
		}
		cur = r.docTree.successor(cur)
		if cur == noSegment {
			break
		}
	}

	left := r.arena.get(leftID)
	right := r.arena.get(rightID)
	return &TextDeletionMod{
		MaxSequenceNumberBySite: maxSeq,
		LeftDependencyID:        left.spliceID,
		OffsetInLeftDependency:  left.offset,
		RightDependencyID:       right.spliceID,
		OffsetInRightDependency: right.offset.Traverse(right.extent),
	}, nil
}

func (r *Replica) applyLocalInsertion(spliceID SpliceID, position Point, text string) (*TextInsertionMod, error) {
	rightID, err := r.splitAtPosition(position)
	if err != nil {
		return nil, err
	}
	leftID := r.docTree.predecessor(rightID)
	if leftID == noSegment {
		return nil, ErrSegmentNotFound
	}

	left := r.arena.get(leftID)
	right := r.arena.get(rightID)

	newSeg := newSegment(spliceID, ZeroPoint, text, ExtentOfString(text))
	newSeg.leftDependency = leftID
	newSeg.rightDependency = rightID
	newID := r.arena.alloc(newSeg)

	r.docTree.insertBetween(leftID, rightID, newID)
	r.setRoot(spliceID, newID)

	return &TextInsertionMod{
		Text:                    text,
		LeftDependencyID:        left.spliceID,
		OffsetInLeftDependency:  left.offset.Traverse(left.extent),
		RightDependencyID:       right.spliceID,
		OffsetInRightDependency: right.offset,
	}, nil
}

// IntegrateOperations integrates a batch of remote operations, applying
// whatever is causally ready and deferring the rest, and feeds newly
// unblocked deferred operations back into the same pass.
func (r *Replica) IntegrateOperations(ops []Operation) (DocumentStateUpdate, error) {
	var update DocumentStateUpdate
	queue := append([]Operation{}, ops...)
	for len(queue) > 0 {
		op := queue[0]
		queue = queue[1:]

		ready, missing := r.canIntegrateOperation(op)
		if !ready {
			r.deferOperation(op, missing)
			continue
		}
		du, unblocked, err := r.integrateOne(op)
		if err != nil {
			return DocumentStateUpdate{}, err
		}
		mergeDocumentStateUpdate(&update, du)
		queue = append(queue, unblocked...)
	}
	return update, nil
}

func (r *Replica) canIntegrateOperation(op Operation) (bool, []SpliceID) {
	switch {
	case op.Splice != nil:
		s := op.Splice
		if s.SpliceID.SequenceNumber <= r.maxSequenceNumberBySite[s.SpliceID.SiteID] {
			// Already integrated: integrateSplice treats it as a no-op.
			return true, nil
		}
		var missing []SpliceID
		if r.maxSequenceNumberBySite[s.SpliceID.SiteID] != s.SpliceID.SequenceNumber-1 {
			missing = append(missing, SpliceID{SiteID: s.SpliceID.SiteID, SequenceNumber: s.SpliceID.SequenceNumber - 1})
		}
		if d := s.Deletion; d != nil {
			if _, ok := r.rootFor(d.LeftDependencyID); !ok {
				missing = append(missing, d.LeftDependencyID)
			}
			if _, ok := r.rootFor(d.RightDependencyID); !ok {
				missing = append(missing, d.RightDependencyID)
			}
			for site, seq := range d.MaxSequenceNumberBySite {
				if r.maxSequenceNumberBySite[site] < seq {
					missing = append(missing, SpliceID{SiteID: site, SequenceNumber: r.maxSequenceNumberBySite[site] + 1})
				}
			}
		}
		if ins := s.Insertion; ins != nil {
			if _, ok := r.rootFor(ins.LeftDependencyID); !ok {
				missing = append(missing, ins.LeftDependencyID)
			}
			if _, ok := r.rootFor(ins.RightDependencyID); !ok {
				missing = append(missing, ins.RightDependencyID)
			}
		}
		return len(missing) == 0, missing

	case op.Undo != nil:
		u := op.Undo
		if u.SpliceID.SequenceNumber <= r.maxSequenceNumberBySite[u.SpliceID.SiteID] {
			return true, nil
		}
		return false, []SpliceID{u.SpliceID}

	case op.MarkersUpdate != nil:
		return true, nil
	}
	return true, nil
}

func (r *Replica) deferOperation(op Operation, missing []SpliceID) {
	for _, dep := range missing {
		k := spliceKey(dep)
		r.deferredOps[k] = append(r.deferredOps[k], op)
	}
}

func (r *Replica) popDeferred(id SpliceID) []Operation {
	k := spliceKey(id)
	ops := r.deferredOps[k]
	delete(r.deferredOps, k)
	return ops
}

func (r *Replica) integrateOne(op Operation) (DocumentStateUpdate, []Operation, error) {
	switch {
	case op.Splice != nil:
		return r.integrateSplice(op.Splice)
	case op.Undo != nil:
		return r.integrateUndo(op.Undo)
	case op.MarkersUpdate != nil:
		return r.integrateMarkersUpdate(op.MarkersUpdate)
	default:
		return DocumentStateUpdate{}, nil, ErrUnknownOperationKind
	}
}

func (r *Replica) integrateSplice(s *SpliceOperation) (DocumentStateUpdate, []Operation, error) {
	if s.SpliceID.SequenceNumber <= r.maxSequenceNumberBySite[s.SpliceID.SiteID] {
		return DocumentStateUpdate{}, nil, nil
	}

	var updates []TextUpdate

	if d := s.Deletion; d != nil {
		leftID, err := r.findDependencyStart(d.LeftDependencyID, d.OffsetInLeftDependency)
		if err != nil {
			return DocumentStateUpdate{}, nil, err
		}
		rightID, err := r.findDependencyEnd(d.RightDependencyID, d.OffsetInRightDependency)
		if err != nil {
			return DocumentStateUpdate{}, nil, err
		}

		runStart := r.docTree.getSegmentPosition(leftID)
		var oldText strings.Builder
		cur := leftID
		for {
			seg := r.arena.get(cur)
			if d.MaxSequenceNumberBySite[seg.spliceID.SiteID] >= seg.spliceID.SequenceNumber {
				if seg.visible(r.undoCountOf) {
					oldText.WriteString(seg.text)
				}
				seg.deletions.Add(s.SpliceID)
				r.deletedBy[spliceKey(s.SpliceID)] = append(r.deletedBy[spliceKey(s.SpliceID)], cur)
			}
			r.docTree.splayUp(cur)
			r.docTree.update(cur)
			if cur == rightID {
				break
			}
			cur = r.docTree.successor(cur)
			if cur == noSegment {
				break
			}
		}
		if oldText.Len() > 0 {
			updates = append(updates, TextUpdate{
				OldStart: runStart,
				OldEnd:   runStart.Traverse(ExtentOfString(oldText.String())),
				OldText:  oldText.String(),
				NewStart: runStart,
				NewEnd:   runStart,
				NewText:  "",
			})
		}
	}

	if ins := s.Insertion; ins != nil {
		leftID, err := r.findDependencyEnd(ins.LeftDependencyID, ins.OffsetInLeftDependency)
		if err != nil {
			return DocumentStateUpdate{}, nil, err
		}
		rightID, err := r.findDependencyStart(ins.RightDependencyID, ins.OffsetInRightDependency)
		if err != nil {
			return DocumentStateUpdate{}, nil, err
		}

		placedLeft, placedRight := r.resolveInsertionOrdering(s.SpliceID, leftID, rightID)

		newSeg := newSegment(s.SpliceID, ZeroPoint, ins.Text, ExtentOfString(ins.Text))
		newSeg.leftDependency = leftID
		newSeg.rightDependency = rightID
		newID := r.arena.alloc(newSeg)
		r.docTree.insertBetween(placedLeft, placedRight, newID)
		r.setRoot(s.SpliceID, newID)

		pos := r.docTree.getSegmentPosition(newID)
		updates = append(updates, TextUpdate{
			OldStart: pos, OldEnd: pos, OldText: "",
			NewStart: pos, NewEnd: pos.Traverse(newSeg.extent), NewText: ins.Text,
		})
	}

	r.maxSequenceNumberBySite[s.SpliceID.SiteID] = s.SpliceID.SequenceNumber
	r.operations = append(r.operations, Operation{Splice: s})

	unblocked := r.popDeferred(s.SpliceID)
	markerUpdates := r.recheckDeferredMarkers(s.SpliceID)
	return DocumentStateUpdate{TextUpdates: updates, MarkerUpdates: markerUpdates}, unblocked, nil
}

// resolveInsertionOrdering implements the integration ordering rule (spec
// §4.1.2): walk document-tree successors of leftID looking for a
// concurrent sibling segment whose own dependencies bracket the same
// placement at least as loosely as this insertion's current [left,right)
// bounds, and break the tie by comparing site ids; otherwise keep scanning
// past it without narrowing the placement.
func (r *Replica) resolveInsertionOrdering(newSpliceID SpliceID, leftID, rightID SegmentID) (SegmentID, SegmentID) {
	left, right := leftID, rightID
	cur := r.docTree.successor(left)
	for cur != noSegment && cur != right {
		c := r.arena.get(cur)
		cLeftIdx := r.docTree.getSegmentIndex(c.leftDependency)
		cRightIdx := r.docTree.getSegmentIndex(c.rightDependency)
		leftIdx := r.docTree.getSegmentIndex(left)
		rightIdx := r.docTree.getSegmentIndex(right)
		if cLeftIdx <= leftIdx && cRightIdx >= rightIdx {
			if newSpliceID.SiteID < c.spliceID.SiteID {
				right = cur
			} else {
				left = cur
			}
			cur = r.docTree.successor(left)
			continue
		}
		cur = r.docTree.successor(cur)
	}
	return left, right
}

func (r *Replica) integrateUndo(u *UndoOperation) (DocumentStateUpdate, []Operation, error) {
	current := r.undoCountOf(u.SpliceID)
	if u.UndoCount <= current {
		return DocumentStateUpdate{}, nil, nil
	}

	updates := r.applyUndoCountChange(u.SpliceID, u.UndoCount)
	r.operations = append(r.operations, Operation{Undo: u})
	unblocked := r.popDeferred(u.SpliceID)
	markerUpdates := r.recheckDeferredMarkers(u.SpliceID)
	return DocumentStateUpdate{TextUpdates: updates, MarkerUpdates: markerUpdates}, unblocked, nil
}

func (r *Replica) visibleExtentOverride(seg *Segment, overrideSplice SpliceID, overrideCount uint32) Point {
	count := func(id SpliceID) uint32 {
		if id.Equal(overrideSplice) {
			return overrideCount
		}
		return r.undoCountOf(id)
	}
	return seg.visibleExtent(count)
}

// applyUndoCountChange installs newCount as spliceID's undo count,
// recomputes the visibility of every segment it can affect (its own
// insertion-side pieces, and every segment it currently covers via
// deletion), and returns the coalesced linear TextUpdates the change
// produces. It is the shared worker behind local undo/redo and remote
// UndoOperation integration.
func (r *Replica) applyUndoCountChange(spliceID SpliceID, newCount uint32) []TextUpdate {
	key := spliceKey(spliceID)
	oldCount := r.undoCountOf(spliceID)

	affected := map[SegmentID]bool{}
	if root, ok := r.rootFor(spliceID); ok {
		for _, id := range r.splitTree.getSegments(root) {
			affected[id] = true
		}
	}
	for _, id := range r.deletedBy[key] {
		affected[id] = true
	}

	type change struct {
		id        SegmentID
		before    Point
		after     Point
		posBefore Point
	}
	var changed []change
	for id := range affected {
		seg := r.arena.get(id)
		before := r.visibleExtentOverride(seg, spliceID, oldCount)
		after := r.visibleExtentOverride(seg, spliceID, newCount)
		if before.Compare(after) == 0 {
			continue
		}
		changed = append(changed, change{id: id, before: before, after: after, posBefore: r.docTree.getSegmentPosition(id)})
	}

	r.undoCounts.Set(undoCountEntry{key: key, count: newCount})

	if len(changed) == 0 {
		return nil
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].posBefore.Compare(changed[j].posBefore) < 0 })

	var updates []TextUpdate
	for _, c := range changed {
		seg := r.arena.get(c.id)
		r.docTree.splayUp(c.id)
		r.docTree.update(c.id)
		// Every earlier change is already applied, so this is c's position
		// in the post-change document.
		newStart := r.docTree.getSegmentPosition(c.id)

		oldText, newText := "", ""
		if !c.before.IsZero() {
			oldText = seg.text
		}
		if !c.after.IsZero() {
			newText = seg.text
		}
		updates = append(updates, TextUpdate{
			OldStart: c.posBefore,
			OldEnd:   c.posBefore.Traverse(c.before),
			OldText:  oldText,
			NewStart: newStart,
			NewEnd:   newStart.Traverse(c.after),
			NewText:  newText,
		})
	}
	return coalesceTextUpdates(updates)
}

// coalesceTextUpdates merges adjacent updates whose old/new spans touch,
// so callers see one contiguous edit instead of several abutting ones.
func coalesceTextUpdates(updates []TextUpdate) []TextUpdate {
	if len(updates) == 0 {
		return nil
	}
	merged := make([]TextUpdate, 0, len(updates))
	merged = append(merged, updates[0])
	for _, u := range updates[1:] {
		last := &merged[len(merged)-1]
		if last.OldEnd.Compare(u.OldStart) == 0 && last.NewEnd.Compare(u.NewStart) == 0 {
			last.OldEnd = u.OldEnd
			last.OldText += u.OldText
			last.NewEnd = u.NewEnd
			last.NewText += u.NewText
			continue
		}
		merged = append(merged, u)
	}
	return merged
}

func mergeDocumentStateUpdate(dst *DocumentStateUpdate, src DocumentStateUpdate) {
	dst.TextUpdates = append(dst.TextUpdates, src.TextUpdates...)
	if len(src.MarkerUpdates) == 0 {
		return
	}
	if dst.MarkerUpdates == nil {
		dst.MarkerUpdates = map[uint32]map[LayerID]map[MarkerID]*ResolvedMarker{}
	}
	for site, layers := range src.MarkerUpdates {
		if dst.MarkerUpdates[site] == nil {
			dst.MarkerUpdates[site] = map[LayerID]map[MarkerID]*ResolvedMarker{}
		}
		for layer, markers := range layers {
			if dst.MarkerUpdates[site][layer] == nil {
				dst.MarkerUpdates[site][layer] = map[MarkerID]*ResolvedMarker{}
			}
			for id, m := range markers {
				dst.MarkerUpdates[site][layer][id] = m
			}
		}
	}
}
