package commitment

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// Spec is the logical state of one commitment: the set of live HTLCs, the
// feerate it was built at, and the two parties' balances. Named
// CommitmentSpec in spec.md §3. toLocal + toRemote + sum(htlc.Amount) ==
// capacity, modulo the miner fee (spec.md §3 invariant).
type Spec struct {
	// Htlcs is every HTLC currently live on this commitment, keyed by
	// its (direction, id) identity. Direction is from the local party's
	// point of view on both commitments: Outgoing means we offered the
	// HTLC.
	Htlcs map[htlc.Key]htlc.HTLC

	// FeePerKw is the feerate, in satoshis per 1000 weight units, this
	// commitment was built at.
	FeePerKw btcutil.Amount

	// ToLocal is the local party's balance on this commitment, whichever
	// party's commitment it is.
	ToLocal lnwire.MilliSatoshi

	// ToRemote is the remote party's balance on this commitment.
	ToRemote lnwire.MilliSatoshi
}

// HtlcList returns the live HTLCs as a slice, for callers that need a
// stable iteration order (sorted by ID within each direction) rather than
// a map.
func (s Spec) HtlcList() []htlc.HTLC {
	out := make([]htlc.HTLC, 0, len(s.Htlcs))
	for _, h := range s.Htlcs {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Direction != out[j].Direction {
			return out[i].Direction < out[j].Direction
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Side identifies which party's point of view a Spec or dust-exposure
// computation is taken from. Local and remote dust limits can differ, so
// the same set of HTLCs can trim differently on each side (spec.md §4.1).
type Side uint8

const (
	// Local is the owner's own commitment.
	Local Side = iota

	// Remote is the counterparty's commitment.
	Remote
)

// untrimmed splits an HTLC set into those that clear the trim threshold for
// the given format/dustLimit/feerate and those that don't, from the
// perspective of the commitment's owner (ownerIsLocal): an HTLC the owner
// offered uses the "offered" threshold, one the counterparty offered uses
// "received" —
// mirroring the teacher's evaluateHTLCView, which applies
// HtlcTimeoutFee/HtlcSuccessFee depending on direction relative to whoever
// owns the commitment being built.
func untrimmed(
	htlcs map[htlc.Key]htlc.HTLC, ownerIsLocal bool, format Format,
	dustLimit, feePerKw btcutil.Amount) (kept, trimmed []htlc.HTLC) {

	offeredThresh, receivedThresh := TrimThresholds(format, dustLimit, feePerKw)

	for _, h := range htlcs {
		amt := btcutil.Amount(h.Amount.ToSatoshis())

		isOwnerOffered := (h.Direction == htlc.Outgoing) == ownerIsLocal
		thresh := receivedThresh
		if isOwnerOffered {
			thresh = offeredThresh
		}

		if amt < thresh {
			trimmed = append(trimmed, h)
			continue
		}
		kept = append(kept, h)
	}
	return kept, trimmed
}

// DustExposure sums the value of every HTLC on spec, from side's point of
// view, that is either trimmed outright or within toleranceBp (basis
// points) of its trim threshold. spec.md §4.1 requires counting near-dust
// HTLCs alongside fully-trimmed ones because a small feerate increase can
// push a near-threshold HTLC into dust before the channel reacts; the exact
// tolerance band is left to the caller (see DESIGN.md Open Question on
// feerateForDustExposure).
func DustExposure(
	spec Spec, side Side, dustLimit, feePerKw btcutil.Amount,
	format Format, toleranceBp uint32) btcutil.Amount {

	ownerIsLocal := side == Local
	offeredThresh, receivedThresh := TrimThresholds(format, dustLimit, feePerKw)

	var exposure btcutil.Amount
	for _, h := range spec.Htlcs {
		amt := btcutil.Amount(h.Amount.ToSatoshis())

		isOwnerOffered := (h.Direction == htlc.Outgoing) == ownerIsLocal
		thresh := receivedThresh
		if isOwnerOffered {
			thresh = offeredThresh
		}

		band := thresh + thresh*btcutil.Amount(toleranceBp)/10_000
		if amt <= band {
			exposure += amt
		}
	}
	return exposure
}
