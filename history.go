package strand

import (
	"time"

	"github.com/google/uuid"
)

// CheckpointID addresses a checkpoint on the undo stack. Seq is the
// monotonic per-replica counter and remains the canonical ordering key;
// UUID gives callers a collision-free handle that doesn't require
// coordinating a shared counter namespace across replicas.
type CheckpointID struct {
	Seq  uint64
	UUID uuid.UUID
}

// markerSnapshot is a per-layer, per-marker snapshot of logical markers,
// used for both CheckpointRecord.MarkersSnapshot and the before/after
// snapshots on a TransactionRecord.
type markerSnapshot map[LayerID]map[MarkerID]LogicalMarker

func cloneMarkerSnapshot(m markerSnapshot) markerSnapshot {
	if m == nil {
		return nil
	}
	out := make(markerSnapshot, len(m))
	for layer, markers := range m {
		cp := make(map[MarkerID]LogicalMarker, len(markers))
		for id, mk := range markers {
			cp[id] = mk
		}
		out[layer] = cp
	}
	return out
}

// recordedOperation is one entry inside a TransactionRecord.Operations
// list: either the SpliceOperation or the UndoOperation that was applied.
type recordedOperation struct {
	Splice *SpliceOperation
	Undo   *UndoOperation
}

// TransactionRecord groups one or more operations performed together,
// with an optional grouping interval used by ApplyGroupingInterval to
// decide whether a later transaction should be merged into this one.
type TransactionRecord struct {
	Timestamp        time.Time
	GroupingInterval *time.Duration
	Operations       []recordedOperation
	MarkersBefore    markerSnapshot
	MarkersAfter     markerSnapshot
}

// CheckpointRecord is an addressable stack marker. A barrier checkpoint
// blocks Undo, RevertToCheckpoint, and GroupChangesSinceCheckpoint from
// crossing it.
type CheckpointRecord struct {
	ID               CheckpointID
	IsBarrier        bool
	MarkersSnapshot  markerSnapshot
}

// UndoRecord is a closed sum type: exactly one of Transaction or
// Checkpoint is set. See the note on Operation in operations.go for why
// this package prefers a tagged struct to an interface for closed sets.
type UndoRecord struct {
	Transaction *TransactionRecord
	Checkpoint  *CheckpointRecord
}

// History is a read-only, restorable snapshot of a replica's undo/redo
// stacks, produced by Replica.GetHistory and consumed by
// Replica.PopulateHistory.
type History struct {
	BaseText         *string
	NextCheckpointID uint64
	UndoStack        []HistoryEntry
	RedoStack        []HistoryEntry
}

// HistoryEntry is one entry of a History stack: either a transaction
// (with its changes already materialized as linear TextUpdates) or a
// checkpoint.
type HistoryEntry struct {
	Transaction *HistoryTransaction
	Checkpoint  *CheckpointRecord
}

// HistoryTransaction is a TransactionRecord with its changes materialized
// as linear TextUpdates, computed by actually undoing/redoing operations
// against the live tree.
type HistoryTransaction struct {
	Timestamp     time.Time
	Changes       []TextUpdate
	MarkersBefore markerSnapshot
	MarkersAfter  markerSnapshot
}
