package strand

import (
	"time"

	"github.com/google/uuid"
)

// undoOrRedoOperations flips the undo count of every splice named by ops
// by incrementing it by one, the same operation whether it's being
// undone or redone, since parity alone decides visibility. It returns the
// counter-operations to broadcast plus the coalesced linear TextUpdates
// the flip produces.
func (r *Replica) undoOrRedoOperations(ops []recordedOperation) ([]UndoOperation, []TextUpdate) {
	var resultOps []UndoOperation
	var updates []TextUpdate
	for _, op := range ops {
		var spliceID SpliceID
		switch {
		case op.Splice != nil:
			spliceID = op.Splice.SpliceID
		case op.Undo != nil:
			spliceID = op.Undo.SpliceID
		default:
			continue
		}
		newCount := r.undoCountOf(spliceID) + 1
		updates = append(updates, r.applyUndoCountChange(spliceID, newCount)...)
		resultOps = append(resultOps, UndoOperation{SpliceID: spliceID, UndoCount: newCount})
	}
	return resultOps, coalesceTextUpdates(updates)
}

// changesForOperations computes the linear TextUpdates ops would produce
// without leaving any net effect: it snapshots every target splice's undo
// count, flips it twice in a row against the live tree to materialize the
// TextUpdates, then restores the exact original counts from the snapshot,
// the same materialize-by-mutating-and-reverting technique GetHistory uses
// for history snapshots.
func (r *Replica) changesForOperations(ops []recordedOperation) []TextUpdate {
	saved := r.snapshotUndoCounts()
	defer r.restoreUndoCounts(saved)

	r.undoOrRedoOperations(ops)
	_, updates := r.undoOrRedoOperations(ops)
	return updates
}

func (r *Replica) resolveMarkerSnapshot(snap markerSnapshot) map[LayerID]map[MarkerID]*ResolvedMarker {
	if snap == nil {
		return nil
	}
	out := map[LayerID]map[MarkerID]*ResolvedMarker{}
	for layer, markers := range snap {
		layerOut := map[MarkerID]*ResolvedMarker{}
		for id, lm := range markers {
			rm, err := r.resolveMarker(lm)
			if err != nil {
				continue
			}
			layerOut[id] = &rm
		}
		out[layer] = layerOut
	}
	return out
}

func (r *Replica) toLogicalSnapshot(markers map[LayerID]map[MarkerID]ResolvedMarker) markerSnapshot {
	if markers == nil {
		return nil
	}
	out := markerSnapshot{}
	for layer, ms := range markers {
		layerOut := map[MarkerID]LogicalMarker{}
		for id, m := range ms {
			lr, err := getLogicalRange(r.docTree, m.Range, m.Exclusive, r.undoCountOf)
			if err != nil {
				continue
			}
			layerOut[id] = toLogical(m, lr)
		}
		out[layer] = layerOut
	}
	return out
}

// Undo scans the undo stack top-down for the nearest TransactionRecord,
// refusing if it crosses a barrier checkpoint first. The transaction and
// everything above it (checkpoints included) move to the redo stack.
func (r *Replica) Undo() *UndoRedoResult {
	idx := -1
	for i := len(r.undoStack) - 1; i >= 0; i-- {
		rec := r.undoStack[i]
		if rec.Checkpoint != nil && rec.Checkpoint.IsBarrier {
			return nil
		}
		if rec.Transaction != nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	moved := append([]UndoRecord{}, r.undoStack[idx:]...)
	r.undoStack = r.undoStack[:idx]
	r.redoStack = append(r.redoStack, moved...)

	txn := moved[0].Transaction
	ops, updates := r.undoOrRedoOperations(txn.Operations)
	return &UndoRedoResult{
		Operations:  ops,
		TextUpdates: updates,
		Markers:     r.resolveMarkerSnapshot(txn.MarkersBefore),
	}
}

// Redo scans the redo stack top-down for the nearest TransactionRecord and
// moves it, plus everything above it, back onto the undo stack.
func (r *Replica) Redo() *UndoRedoResult {
	j := -1
	for i := len(r.redoStack) - 1; i >= 0; i-- {
		if r.redoStack[i].Transaction != nil {
			j = i
			break
		}
	}
	if j == -1 {
		return nil
	}

	moved := append([]UndoRecord{}, r.redoStack[j:]...)
	r.redoStack = r.redoStack[:j]
	r.undoStack = append(r.undoStack, moved...)

	txn := moved[0].Transaction
	ops, updates := r.undoOrRedoOperations(txn.Operations)
	return &UndoRedoResult{
		Operations:  ops,
		TextUpdates: updates,
		Markers:     r.resolveMarkerSnapshot(txn.MarkersAfter),
	}
}

// CreateCheckpoint pushes an addressable marker onto the undo stack,
// optionally snapshotting the caller's live marker state so a later group
// or revert can report a markersBefore that matches this moment.
func (r *Replica) CreateCheckpoint(isBarrier bool, markers map[LayerID]map[MarkerID]ResolvedMarker) CheckpointID {
	r.nextCheckpointSeq++
	id := CheckpointID{Seq: r.nextCheckpointSeq, UUID: uuid.New()}
	r.undoStack = append(r.undoStack, UndoRecord{Checkpoint: &CheckpointRecord{
		ID:              id,
		IsBarrier:       isBarrier,
		MarkersSnapshot: r.toLogicalSnapshot(markers),
	}})
	return id
}

func (r *Replica) findCheckpointIndex(id CheckpointID) int {
	for i := len(r.undoStack) - 1; i >= 0; i-- {
		if c := r.undoStack[i].Checkpoint; c != nil && c.ID == id {
			return i
		}
	}
	return -1
}

// barrierAbove reports whether a barrier checkpoint lies strictly above
// idx on the undo stack, blocking any operation that would span idx to
// the top.
func (r *Replica) barrierAbove(idx int) bool {
	for i := idx + 1; i < len(r.undoStack); i++ {
		if c := r.undoStack[i].Checkpoint; c != nil && c.IsBarrier {
			return true
		}
	}
	return false
}

// GroupChangesSinceCheckpoint merges every transaction above checkpoint id
// into a single new TransactionRecord, returning the linear TextUpdates
// the merged span produces, or nil if id is unknown or blocked by a
// barrier.
func (r *Replica) GroupChangesSinceCheckpoint(id CheckpointID, deleteCheckpoint bool, markersAfter map[LayerID]map[MarkerID]ResolvedMarker) []TextUpdate {
	idx := r.findCheckpointIndex(id)
	if idx == -1 || r.barrierAbove(idx) {
		return nil
	}
	cp := r.undoStack[idx].Checkpoint

	var ops []recordedOperation
	for i := idx + 1; i < len(r.undoStack); i++ {
		if txn := r.undoStack[i].Transaction; txn != nil {
			ops = append(ops, txn.Operations...)
		}
	}
	updates := r.changesForOperations(ops)

	newRecord := UndoRecord{Transaction: &TransactionRecord{
		Timestamp:     r.clock.Now(),
		Operations:    ops,
		MarkersBefore: cp.MarkersSnapshot,
		MarkersAfter:  r.toLogicalSnapshot(markersAfter),
	}}

	if deleteCheckpoint {
		r.undoStack = append(r.undoStack[:idx], newRecord)
	} else {
		r.undoStack = append(r.undoStack[:idx+1], newRecord)
	}
	return updates
}

// GetChangesSinceCheckpoint reports the linear TextUpdates everything
// above checkpoint id would produce, without altering the undo stack.
func (r *Replica) GetChangesSinceCheckpoint(id CheckpointID) []TextUpdate {
	idx := r.findCheckpointIndex(id)
	if idx == -1 || r.barrierAbove(idx) {
		return nil
	}
	var ops []recordedOperation
	for i := idx + 1; i < len(r.undoStack); i++ {
		if txn := r.undoStack[i].Transaction; txn != nil {
			ops = append(ops, txn.Operations...)
		}
	}
	return r.changesForOperations(ops)
}

// RevertToCheckpoint undoes every transaction above checkpoint id, newest
// first, discarding the redo stack, and returns the counter-operations to
// broadcast.
func (r *Replica) RevertToCheckpoint(id CheckpointID, deleteCheckpoint bool) *UndoRedoResult {
	idx := r.findCheckpointIndex(id)
	if idx == -1 || r.barrierAbove(idx) {
		return nil
	}
	cp := r.undoStack[idx].Checkpoint

	var ops []recordedOperation
	for i := len(r.undoStack) - 1; i > idx; i-- {
		if txn := r.undoStack[i].Transaction; txn != nil {
			ops = append(ops, txn.Operations...)
		}
	}
	resultOps, updates := r.undoOrRedoOperations(ops)

	if deleteCheckpoint {
		r.undoStack = r.undoStack[:idx]
	} else {
		r.undoStack = r.undoStack[:idx+1]
	}
	r.redoStack = nil

	return &UndoRedoResult{
		Operations:  resultOps,
		TextUpdates: updates,
		Markers:     r.resolveMarkerSnapshot(cp.MarkersSnapshot),
	}
}

// GroupLastChanges merges the two topmost transactions on the undo stack,
// dropping any non-barrier checkpoints between them, refusing if a
// barrier lies in the way. Reports whether a merge happened.
func (r *Replica) GroupLastChanges() bool {
	top, prev := -1, -1
	for i := len(r.undoStack) - 1; i >= 0; i-- {
		rec := r.undoStack[i]
		if rec.Checkpoint != nil && rec.Checkpoint.IsBarrier {
			return false
		}
		if rec.Transaction != nil {
			if top == -1 {
				top = i
			} else {
				prev = i
				break
			}
		}
	}
	if top == -1 || prev == -1 {
		return false
	}

	topTxn := r.undoStack[top].Transaction
	prevTxn := r.undoStack[prev].Transaction
	prevTxn.Operations = append(prevTxn.Operations, topTxn.Operations...)
	prevTxn.Timestamp = topTxn.Timestamp
	prevTxn.MarkersAfter = topTxn.MarkersAfter
	r.undoStack = append(r.undoStack[:prev+1], r.undoStack[top+1:]...)
	return true
}

// ApplyGroupingInterval records d as the topmost transaction's grouping
// interval, then merges it into the transaction below if both are
// strictly adjacent (no checkpoint between) and their timestamps fall
// within the shorter of the two transactions' intervals.
func (r *Replica) ApplyGroupingInterval(d time.Duration) {
	if len(r.undoStack) == 0 {
		return
	}
	top := &r.undoStack[len(r.undoStack)-1]
	if top.Transaction == nil {
		return
	}
	top.Transaction.GroupingInterval = &d

	if len(r.undoStack) < 2 {
		return
	}
	prev := &r.undoStack[len(r.undoStack)-2]
	if prev.Transaction == nil {
		return
	}

	limit := d
	if prev.Transaction.GroupingInterval != nil && *prev.Transaction.GroupingInterval < limit {
		limit = *prev.Transaction.GroupingInterval
	}
	if top.Transaction.Timestamp.Sub(prev.Transaction.Timestamp) >= limit {
		return
	}

	prev.Transaction.Operations = append(prev.Transaction.Operations, top.Transaction.Operations...)
	prev.Transaction.Timestamp = top.Transaction.Timestamp
	prev.Transaction.MarkersAfter = top.Transaction.MarkersAfter
	prev.Transaction.GroupingInterval = &d
	r.undoStack = r.undoStack[:len(r.undoStack)-1]
}
