package strand

import "errors"

// Construction errors
var (
	// ErrReservedSiteID indicates a replica was constructed with siteId 0,
	// which is reserved for the two sentinel segments.
	ErrReservedSiteID = errors.New("strand: site id 0 is reserved")
)

// Local-edit errors
var (
	// ErrOutOfOrderLocalOperation indicates SetTextInRange was called while
	// the per-site sequence counter was inconsistent. Unreachable under
	// correct use; it indicates a bug in the caller or in the replica itself.
	ErrOutOfOrderLocalOperation = errors.New("strand: out-of-order local operation")
)

// Integration errors
var (
	// ErrUnknownOperationKind indicates IntegrateOperations saw a variant it
	// does not recognize.
	ErrUnknownOperationKind = errors.New("strand: unknown operation kind")

	// ErrUnknownUndoRecordKind indicates PopulateHistory met a History
	// entry that is neither a transaction nor a checkpoint.
	ErrUnknownUndoRecordKind = errors.New("strand: unknown undo record kind")
)

// Position and lookup errors
var (
	// ErrPositionOutOfRange indicates a requested linear position lies
	// beyond the document's visible extent.
	ErrPositionOutOfRange = errors.New("strand: position out of range")

	// ErrSegmentNotFound indicates a tree lookup hit a missing segment.
	// This signals an internal invariant violation.
	ErrSegmentNotFound = errors.New("strand: segment not found")
)
