package strand

// ReservedSiteID is the site id reserved for the two sentinel segments that
// bound every document. A real replica must never be constructed with this
// id.
const ReservedSiteID uint32 = 0

// SpliceID names a single local edit on the site that produced it:
// deletion and insertion performed by one SetTextInRange call share the
// same SpliceID. Sequence numbers are per-site and start at 1, increasing
// by 1 per local edit.
type SpliceID struct {
	SiteID         uint32
	SequenceNumber uint32
}

// startSentinelID and endSentinelID are the two fixed segments that bound
// every document: empty text, never deleted, never carrying visible
// extent. They live on the reserved site.
var (
	startSentinelID = SpliceID{SiteID: ReservedSiteID, SequenceNumber: 0}
	endSentinelID   = SpliceID{SiteID: ReservedSiteID, SequenceNumber: 1}
)

// Equal reports whether two SpliceIDs name the same splice. Per the
// glossary note in the specification this is implemented field-by-field
// with AND for equality (so two SpliceIDs are unequal iff *any* field
// differs), avoiding the source's suspected && defect in its inequality
// operator.
func (id SpliceID) Equal(other SpliceID) bool {
	return id.SiteID == other.SiteID && id.SequenceNumber == other.SequenceNumber
}

// Less provides a total order over SpliceIDs, used only for deterministic
// iteration (e.g. when building ordered output); it carries no CRDT
// meaning by itself.
func (id SpliceID) Less(other SpliceID) bool {
	if id.SiteID != other.SiteID {
		return id.SiteID < other.SiteID
	}
	return id.SequenceNumber < other.SequenceNumber
}

// SplicePosition anchors a position inside the text produced by a splice:
// the offset is measured in Point units from the start of that splice's
// original insertion.
type SplicePosition struct {
	SpliceID SpliceID
	Offset   Point
}
