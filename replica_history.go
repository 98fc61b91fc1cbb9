package strand

import "github.com/tidwall/btree"

// GetOperations returns every operation this replica has integrated, plus
// one synthesized MarkersUpdateOperation per site carrying that site's
// current live marker state, the form a newly-joining peer needs to
// catch up in one shot.
func (r *Replica) GetOperations() []Operation {
	ops := append([]Operation{}, r.operations...)
	for site, layers := range r.markers {
		updates := map[LayerID]map[MarkerID]*LogicalMarker{}
		for layer, markers := range layers {
			layerOut := map[MarkerID]*LogicalMarker{}
			for id, lm := range markers {
				m := lm
				layerOut[id] = &m
			}
			updates[layer] = layerOut
		}
		ops = append(ops, Operation{MarkersUpdate: &MarkersUpdateOperation{SiteID: site, Updates: updates}})
	}
	return ops
}

// GetHistory materializes up to maxEntries of the undo stack and maxEntries
// of the redo stack into a restorable snapshot, computing each
// transaction's linear TextUpdates by actually flipping its splices' undo
// counts against the live tree and then flipping them back, leaving the
// document and undo/redo stacks exactly as they were.
func (r *Replica) GetHistory(maxEntries int) History {
	saved := r.snapshotUndoCounts()
	defer r.restoreUndoCounts(saved)

	h := History{NextCheckpointID: r.nextCheckpointSeq}

	var redoEntries []HistoryEntry
	var touchedRedo []*TransactionRecord
	for i, count := len(r.redoStack)-1, 0; i >= 0 && count < maxEntries; i-- {
		rec := r.redoStack[i]
		if rec.Checkpoint != nil {
			redoEntries = append(redoEntries, HistoryEntry{Checkpoint: rec.Checkpoint})
			count++
			continue
		}
		txn := rec.Transaction
		before := cloneMarkerSnapshot(txn.MarkersBefore)
		_, updates := r.undoOrRedoOperations(txn.Operations)
		after := cloneMarkerSnapshot(txn.MarkersAfter)
		redoEntries = append(redoEntries, HistoryEntry{Transaction: &HistoryTransaction{
			Timestamp: txn.Timestamp, Changes: updates, MarkersBefore: before, MarkersAfter: after,
		}})
		touchedRedo = append(touchedRedo, txn)
		count++
	}
	for _, txn := range touchedRedo {
		r.undoOrRedoOperations(txn.Operations)
	}
	reverseHistoryEntries(redoEntries)
	h.RedoStack = redoEntries

	var undoEntries []HistoryEntry
	var touchedUndo []*TransactionRecord
	for i, count := len(r.undoStack)-1, 0; i >= 0 && count < maxEntries; i-- {
		rec := r.undoStack[i]
		if rec.Checkpoint != nil {
			undoEntries = append(undoEntries, HistoryEntry{Checkpoint: rec.Checkpoint})
			count++
			continue
		}
		txn := rec.Transaction
		after := cloneMarkerSnapshot(txn.MarkersAfter)
		_, updates := r.undoOrRedoOperations(txn.Operations)
		before := cloneMarkerSnapshot(txn.MarkersBefore)
		undoEntries = append(undoEntries, HistoryEntry{Transaction: &HistoryTransaction{
			Timestamp:     txn.Timestamp,
			Changes:       invertTextUpdates(updates),
			MarkersBefore: before,
			MarkersAfter:  after,
		}})
		touchedUndo = append(touchedUndo, txn)
		count++
	}
	for _, txn := range touchedUndo {
		r.undoOrRedoOperations(txn.Operations)
	}
	reverseHistoryEntries(undoEntries)
	h.UndoStack = undoEntries
	return h
}

// PopulateHistory discards this replica's current undo/redo stacks and
// rebuilds them from h: each transaction's Changes are replayed as local
// edits (regenerating fresh splice operations against the live tree),
// each checkpoint is reinstated with IsBarrier cleared, and the stored
// redo-stack entries are pushed then immediately undone back onto the
// redo stack.
func (r *Replica) PopulateHistory(h History) error {
	r.undoStack = nil
	r.redoStack = nil

	apply := func(entry HistoryEntry) error {
		switch {
		case entry.Transaction != nil:
			t := entry.Transaction
			ops, err := r.replayChanges(t.Changes)
			if err != nil {
				return err
			}
			r.undoStack = append(r.undoStack, UndoRecord{Transaction: &TransactionRecord{
				Timestamp:     t.Timestamp,
				Operations:    ops,
				MarkersBefore: cloneMarkerSnapshot(t.MarkersBefore),
				MarkersAfter:  cloneMarkerSnapshot(t.MarkersAfter),
			}})
		case entry.Checkpoint != nil:
			cp := *entry.Checkpoint
			cp.IsBarrier = false
			r.undoStack = append(r.undoStack, UndoRecord{Checkpoint: &cp})
		default:
			return ErrUnknownUndoRecordKind
		}
		return nil
	}

	for _, entry := range h.UndoStack {
		if err := apply(entry); err != nil {
			return err
		}
	}
	for i := len(h.RedoStack) - 1; i >= 0; i-- {
		if err := apply(h.RedoStack[i]); err != nil {
			return err
		}
	}

	redoCount := 0
	for _, entry := range h.RedoStack {
		if entry.Transaction != nil {
			redoCount++
		}
	}
	for i := 0; i < redoCount; i++ {
		if r.Undo() == nil {
			break
		}
	}

	r.nextCheckpointSeq = h.NextCheckpointID
	return nil
}

// replayChanges reapplies changes as a sequence of local edits against
// the live tree, each producing a fresh SpliceOperation under this
// replica's own site id, and folds away the one-TransactionRecord-per-call
// bookkeeping SetTextInRange leaves behind (the caller assembles a single
// combined TransactionRecord for the whole history entry instead). Changes
// is stored in redo direction (OldStart/OldEnd/NewText describe how to move
// from the pre-transaction state to the post-transaction one); the updates
// are applied last to first, so each old span is still at its recorded
// coordinates when it is replaced.
func (r *Replica) replayChanges(changes []TextUpdate) ([]recordedOperation, error) {
	var ops []recordedOperation
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		op, err := r.SetTextInRange(c.OldStart, c.OldEnd, c.NewText)
		if err != nil {
			return nil, err
		}
		ops = append(ops, recordedOperation{Splice: &op})
	}
	if len(changes) > 0 {
		r.undoStack = r.undoStack[:len(r.undoStack)-len(changes)]
	}
	return ops, nil
}

func invertTextUpdates(updates []TextUpdate) []TextUpdate {
	out := make([]TextUpdate, len(updates))
	for i, u := range updates {
		out[i] = TextUpdate{
			OldStart: u.NewStart, OldEnd: u.NewEnd, OldText: u.NewText,
			NewStart: u.OldStart, NewEnd: u.OldEnd, NewText: u.OldText,
		}
	}
	return out
}

func reverseHistoryEntries(s []HistoryEntry) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func (r *Replica) snapshotUndoCounts() []undoCountEntry {
	n := r.undoCounts.Len()
	snap := make([]undoCountEntry, 0, n)
	for i := 0; i < n; i++ {
		item, ok := r.undoCounts.GetAt(i)
		if !ok {
			break
		}
		snap = append(snap, item)
	}
	return snap
}

func (r *Replica) restoreUndoCounts(snap []undoCountEntry) {
	r.undoCounts = btree.NewBTreeG(lessUndoCountEntry)
	for _, item := range snap {
		r.undoCounts.Set(item)
	}
}
