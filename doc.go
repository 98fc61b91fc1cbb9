// Package strand implements a replicated, real-time collaborative text
// editing core based on a conflict-free replicated data type (CRDT).
//
// Each Replica holds a full copy of a shared document. A replica accepts
// local edits through SetTextInRange, emits SpliceOperations describing
// them, and integrates operations produced by other replicas through
// IntegrateOperations. Independent of delivery order, replicas that have
// seen the same set of operations converge to the same text and the same
// set of resolved marker ranges.
//
// The package also maintains a per-replica linear undo/redo history with
// checkpoints, barriers, transaction grouping, and a snapshot/restore
// facility (History).
//
// Network transport, wire serialization, host editor integration,
// operation-log persistence, identity/auth, and cursor-rendering UI are
// all out of scope: callers are expected to supply those around a Replica.
package strand
