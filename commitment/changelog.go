package commitment

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// UpdateKind identifies what an Update does to the HTLC it refers to.
// Grounded on the teacher's updateType (lnwallet/channel.go), renamed to
// match spec.md's vocabulary.
type UpdateKind uint8

const (
	// Add offers a new HTLC.
	Add UpdateKind = iota

	// Fulfill settles a previously-offered HTLC with its preimage.
	Fulfill

	// Fail cancels a previously-offered HTLC with an opaque onion
	// failure reason.
	Fail

	// FailMalformed cancels a previously-offered HTLC whose onion blob
	// itself failed to parse.
	FailMalformed

	// FeeUpdate changes the commitment feerate. Only the funder may
	// originate one.
	FeeUpdate
)

// Update is one entry in a ChangeLog: an Add, Fulfill, Fail, FailMalformed,
// or FeeUpdate, matching spec.md §3's ChangeLog definition. Exactly one of
// the payload fields is meaningful, selected by Kind.
//
// Rather than the Proposed/Signed/Acked list-per-stage bookkeeping spec.md
// §3 describes in the abstract, this mirrors what the teacher's
// PaymentDescriptor actually tracks per update: the commitment heights, on
// each of the two asymmetric chains, at which this update first became
// included (AddCommitHeightLocal/Remote). A height of zero means "not
// yet included in that chain" — this lets buildSpec ask "what has this
// chain not seen yet" without a separate Proposed/Acked list to keep in
// sync.
type Update struct {
	Kind UpdateKind

	// LogIndex is this update's position in the log that holds it,
	// assigned by addLocalProposal/addRemoteProposal in strictly
	// increasing order.
	LogIndex uint64

	// HTLC is populated for Kind == Add.
	HTLC htlc.HTLC

	// HtlcKey identifies the HTLC a Fulfill/Fail/FailMalformed refers
	// to.
	HtlcKey htlc.Key

	// Preimage is populated for Kind == Fulfill.
	Preimage [32]byte

	// FailReason is populated for Kind == Fail.
	FailReason []byte

	// FailCode/ShaOnionBlob are populated for Kind == FailMalformed.
	FailCode     lnwire.FailCode
	ShaOnionBlob [32]byte

	// FeePerKw is populated for Kind == FeeUpdate.
	FeePerKw btcutil.Amount

	// AddCommitHeightLocal/AddCommitHeightRemote record the commitment
	// height, on the local/remote chain respectively, at which this
	// update first appeared. Zero means "not yet included".
	AddCommitHeightLocal  int64
	AddCommitHeightRemote int64
}

// ChangeLog is one side's queue of updates: the teacher's updateLog,
// carrying one instance per direction (a Commitments holds LocalChanges for
// updates we originate and RemoteChanges for updates the counterparty
// originates), matching spec.md §3's ChangeLog entity.
type ChangeLog struct {
	Updates []Update

	// nextLogIndex is the next LogIndex addLocalProposal/
	// addRemoteProposal will assign.
	nextLogIndex uint64

	// nextHtlcID is the next ID an Add on this log must carry (spec.md
	// §3 invariant 2: per-direction monotonic allocation).
	nextHtlcID uint64
}

// append returns a new ChangeLog with u appended and the counters advanced.
// It never mutates c.
func (c ChangeLog) append(u Update) ChangeLog {
	next := c
	next.Updates = append(append([]Update{}, c.Updates...), u)
	next.nextLogIndex = c.nextLogIndex + 1
	if u.Kind == Add {
		next.nextHtlcID = c.nextHtlcID + 1
	}
	return next
}

// pendingForChain returns every update not yet included in the given
// chain's commitments, in log order, along with the indexes (within
// c.Updates) they occupy.
func (c ChangeLog) pendingForChain(forLocal bool) []int {
	var idxs []int
	for i, u := range c.Updates {
		h := u.AddCommitHeightRemote
		if forLocal {
			h = u.AddCommitHeightLocal
		}
		if h == 0 {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// markIncluded returns a new ChangeLog with every update at the given
// indexes stamped as now included in the given chain's commitment at
// height.
func (c ChangeLog) markIncluded(idxs []int, forLocal bool, height int64) ChangeLog {
	next := c
	next.Updates = append([]Update{}, c.Updates...)
	for _, i := range idxs {
		if forLocal {
			next.Updates[i].AddCommitHeightLocal = height
		} else {
			next.Updates[i].AddCommitHeightRemote = height
		}
	}
	return next
}
