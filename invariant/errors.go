// Package invariant implements the admission-control checks run against a
// prospective commitment before it may be signed or accepted: reserve,
// dust-exposure, fee-affordability, feerate-tolerance, HTLC-count, and
// in-flight-value checks (spec.md §4.2).
//
// Grounded on the teacher's validateCommitmentSanity
// (lnwallet/channel.go), which runs an equivalent ordered sequence of
// sanity checks before accepting a new commitment state; this package pulls
// that logic out into its own ordered table of named, independently
// testable checks, each returning one of the typed errors below rather than
// a single generic error string.
package invariant

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/lnwire"
)

// ExpiryTooSmall means an HTLC's CLTV expiry leaves less than
// minFinalExpiryDelta blocks of margin before it could already be timed
// out.
type ExpiryTooSmall struct {
	ChanID            [32]byte
	Expiry            uint32
	CurrentHeight     uint32
	MinFinalExpiryDelta uint32
}

func (e ExpiryTooSmall) Error() string {
	return fmt.Sprintf("invariant: htlc expiry %d too small: current height "+
		"%d, min final expiry delta %d", e.Expiry, e.CurrentHeight,
		e.MinFinalExpiryDelta)
}

// ExpiryTooBig means an HTLC's CLTV expiry is further in the future than
// the channel's configured maxExpiryDelta allows.
type ExpiryTooBig struct {
	ChanID        [32]byte
	Expiry        uint32
	CurrentHeight uint32
	MaxExpiryDelta uint32
}

func (e ExpiryTooBig) Error() string {
	return fmt.Sprintf("invariant: htlc expiry %d too far out: current "+
		"height %d, max expiry delta %d", e.Expiry, e.CurrentHeight,
		e.MaxExpiryDelta)
}

// HtlcValueTooSmall means an HTLC's amount is below the smaller of the two
// sides' configured htlcMinimum.
type HtlcValueTooSmall struct {
	ChanID    [32]byte
	Amount    lnwire.MilliSatoshi
	MinAmount lnwire.MilliSatoshi
}

func (e HtlcValueTooSmall) Error() string {
	return fmt.Sprintf("invariant: htlc value %v below minimum %v",
		e.Amount, e.MinAmount)
}

// TooManyAcceptedHtlcs means accepting the HTLC would leave the receiving
// side with more live HTLCs than its configured maxAcceptedHtlcs.
type TooManyAcceptedHtlcs struct {
	ChanID  [32]byte
	Count   int
	MaxHtlcs uint16
}

func (e TooManyAcceptedHtlcs) Error() string {
	return fmt.Sprintf("invariant: too many accepted htlcs: %d exceeds max %d",
		e.Count, e.MaxHtlcs)
}

// HtlcValueTooHighInFlight means the sum of one direction's pending HTLC
// amounts, on one of the two commitments, would exceed the receiving
// side's configured maxHtlcValueInFlight (HTLCs offered to us on our
// commitment, HTLCs we offered on theirs).
type HtlcValueTooHighInFlight struct {
	ChanID     [32]byte
	Amount     lnwire.MilliSatoshi
	MaxInFlight lnwire.MilliSatoshi
}

func (e HtlcValueTooHighInFlight) Error() string {
	return fmt.Sprintf("invariant: in-flight htlc value %v exceeds max %v",
		e.Amount, e.MaxInFlight)
}

// InsufficientFunds means that we are the funder and our balance cannot
// cover the channel reserve plus the commitment's miner fee after this
// change, whichever side proposed it.
type InsufficientFunds struct {
	ChanID  [32]byte
	Missing btcutil.Amount
	Reserve btcutil.Amount
	Fees    btcutil.Amount
}

func (e InsufficientFunds) Error() string {
	return fmt.Sprintf("invariant: insufficient funds: missing=%v sat, "+
		"reserve=%v sat, fees=%v sat", e.Missing, e.Reserve, e.Fees)
}

// RemoteCannotAffordFeesForNewHtlc means an HTLC offered by the remote
// party, which is the funder, would dip the funder's own balance below
// reserve+fees once the commitment fee is accounted for (spec.md §4.2:
// "the funder must reject it").
type RemoteCannotAffordFeesForNewHtlc struct {
	ChanID  [32]byte
	Missing btcutil.Amount
	Reserve btcutil.Amount
	Fees    btcutil.Amount
}

func (e RemoteCannotAffordFeesForNewHtlc) Error() string {
	return fmt.Sprintf("invariant: remote cannot afford fees for new htlc: "+
		"missing=%v sat, reserve=%v sat, fees=%v sat", e.Missing, e.Reserve,
		e.Fees)
}

// LocalDustHtlcExposureTooHigh means our own dust-exposure limit would be
// exceeded on one of the two commitments.
type LocalDustHtlcExposureTooHigh struct {
	ChanID       [32]byte
	MaxExposure  btcutil.Amount
	ActualExposure btcutil.Amount
}

func (e LocalDustHtlcExposureTooHigh) Error() string {
	return fmt.Sprintf("invariant: local dust htlc exposure too high: max "+
		"%v, actual %v", e.MaxExposure, e.ActualExposure)
}

// RemoteDustHtlcExposureTooHigh is the counterparty-side analogue of
// LocalDustHtlcExposureTooHigh.
type RemoteDustHtlcExposureTooHigh struct {
	ChanID       [32]byte
	MaxExposure  btcutil.Amount
	ActualExposure btcutil.Amount
}

func (e RemoteDustHtlcExposureTooHigh) Error() string {
	return fmt.Sprintf("invariant: remote dust htlc exposure too high: max "+
		"%v, actual %v", e.MaxExposure, e.ActualExposure)
}

// FeerateTooDifferent means a proposed or received feerate disagrees with
// the channel's tolerated band around the current feerate.
type FeerateTooDifferent struct {
	ChanID   [32]byte
	Proposed btcutil.Amount
	Current  btcutil.Amount
}

func (e FeerateTooDifferent) Error() string {
	return fmt.Sprintf("invariant: feerate %v too different from current %v",
		e.Proposed, e.Current)
}

// NoMoreHtlcsClosingInProgress means a new Add was attempted after Shutdown
// was sent or received.
type NoMoreHtlcsClosingInProgress struct {
	ChanID [32]byte
}

func (e NoMoreHtlcsClosingInProgress) Error() string {
	return "invariant: no more htlcs may be added, closing is in progress"
}
