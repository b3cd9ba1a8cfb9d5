package commitment

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// LocalCommit is our own version of the commitment: the one we could
// broadcast unilaterally at any time. Matches spec.md §3 verbatim.
type LocalCommit struct {
	Index int64

	Spec Spec

	// CommitTx is the fully-formed commitment transaction this commit
	// describes.
	CommitTx *wire.MsgTx

	// CommitSig is the remote party's signature on CommitTx.
	CommitSig *ecdsa.Signature

	// HtlcSigs are the remote party's signatures on every untrimmed HTLC
	// output of CommitTx, in output-index order.
	HtlcSigs []*ecdsa.Signature
}

// TxID returns the txid of CommitTx.
func (c LocalCommit) TxID() chainhash.Hash {
	return c.CommitTx.TxHash()
}

// RemoteCommit is the counterparty's version of the commitment: the one
// they could broadcast unilaterally. We never have a valid signature on it
// (we don't need one to follow BOLT #3 — we sign theirs, they sign ours),
// but we track its shape to know what we're agreeing to. Matches spec.md
// §3.
type RemoteCommit struct {
	Index int64

	Spec Spec

	CommitTx *wire.MsgTx

	// RemoteNextPoint is the per-commitment point the counterparty will
	// use for the commitment after this one.
	RemoteNextPoint *btcec.PublicKey
}

// TxID returns the txid of CommitTx.
func (c RemoteCommit) TxID() chainhash.Hash {
	return c.CommitTx.TxHash()
}

// RemoteCommitState is the sum-type replacement for a
// "NextRemoteCommit-or-nil plus a waiting-for-revocation bool" pair: it is
// always exactly one of Ready (we may freely sign a new remote commitment)
// or Waiting (we already have and are waiting on their revocation). Named
// RemoteNextCommitInfo in spec.md §3; DESIGN NOTES require it be an actual
// sum type rather than optional fields, which is why this is an interface
// with two implementers instead of a struct with a bool
// flag.
type RemoteCommitState interface {
	isRemoteCommitState()
}

// Ready means we may sign a new remote commitment whenever we have pending
// changes.
type Ready struct {
	// NextPoint is the per-commitment point to use for the next
	// commitment we sign for the remote party.
	NextPoint *btcec.PublicKey
}

func (Ready) isRemoteCommitState() {}

// Waiting means we have signed a new remote commitment and are waiting for
// the counterparty's revocation of their previous one before we may sign
// another.
type Waiting struct {
	// SentSig is our signature on the new remote commitment we're
	// waiting to have revoked-into.
	SentSig *ecdsa.Signature

	// HtlcSigs are our signatures on that commitment's untrimmed HTLC
	// outputs.
	HtlcSigs []*ecdsa.Signature

	// Commit is the remote commitment we're waiting on, so that
	// receiveRevocation can rotate it into place once the revocation
	// arrives.
	Commit RemoteCommit
}

func (Waiting) isRemoteCommitState() {}

// FundingStatus records whether a commitment's funding transaction is
// still pending confirmation, confirmed-but-not-yet-locked-in, or fully
// active. Needed once a channel may hold multiple active Commitment values
// during splicing (spec.md §3: "A channel may hold multiple active
// commitments during splicing").
type FundingStatus uint8

const (
	FundingPending FundingStatus = iota
	FundingConfirmed
	FundingLockedIn
)

// Commitment bundles everything that makes up one (fundingTxId, capacity)
// pair's worth of state: its two asymmetric commitment chains plus
// funding-confirmation bookkeeping. Matches spec.md §3's Commitment entity.
type Commitment struct {
	FundingTxID wire.OutPoint
	Capacity    btcutil.Amount

	LocalCommit  LocalCommit
	RemoteCommit RemoteCommit

	// RemoteState is Waiting, holding the signed remote commitment whose
	// revocation we await, while a revocation is outstanding, and Ready
	// otherwise.
	RemoteState RemoteCommitState

	LocalFundingStatus  FundingStatus
	RemoteFundingStatus FundingStatus
}

// Commitments is the full, persisted state of one side of a channel: its
// active Commitment(s), change logs, and shachain state. Matches spec.md
// §3's Commitments entity (a channel's single, persisted Commitments
// value).
type Commitments struct {
	Params Params

	// Active holds every Commitment currently live for this channel.
	// Outside of an in-progress splice this always has exactly one
	// element.
	Active []Commitment

	// LocalChanges is the change log for updates we originate.
	LocalChanges ChangeLog

	// RemoteChanges is the change log for updates the counterparty
	// originates.
	RemoteChanges ChangeLog

	// ShaChain stores/produces the per-commitment revocation secrets:
	// Producer for the secrets we reveal, Receiver for the
	// counterparty's.
	ShaChain ShaChainState
}

// ShaChainState bundles the two shachain halves a Commitments value owns.
type ShaChainState struct {
	Producer *shachain.Producer
	Receiver *shachain.Receiver
}

// Current returns the channel's single active Commitment. Callers dealing
// with a mid-splice channel holding more than one should use
// ActiveCommitments instead.
func (c Commitments) Current() Commitment {
	return c.Active[len(c.Active)-1]
}

// ActiveCommitments returns every Commitment currently tracked, for
// splice-aware callers that must match an on-chain spend against whichever
// candidate it actually confirms (spec.md §3's multi-commitment note).
func (c Commitments) ActiveCommitments() []Commitment {
	return c.Active
}

// withCurrent returns a copy of c with its current Commitment replaced.
func (c Commitments) withCurrent(next Commitment) Commitments {
	out := c
	out.Active = append([]Commitment{}, c.Active...)
	out.Active[len(out.Active)-1] = next
	return out
}

// SideConfig is the subset of ChannelParams each party negotiates for
// itself: spec.md §3 calls out "dust limits, reserves, max HTLCs (per
// side), max in-flight, to_self_delay (per side)" as per-side values, so
// rather than prefixing every field with Local/Remote, ChannelParams holds
// one SideConfig for each.
type SideConfig struct {
	DustLimit            btcutil.Amount
	ChanReserve          btcutil.Amount
	MaxAcceptedHtlcs     uint16
	MaxHtlcValueInFlight lnwire.MilliSatoshi
	HtlcMinimum          lnwire.MilliSatoshi
	ToSelfDelay          uint16

	// MaxDustExposure bounds the sum of trimmed/near-dust HTLC value
	// this side will tolerate losing to fees on a force close (spec.md
	// §3 invariant 8, "max-exposure").
	MaxDustExposure btcutil.Amount
}

// Params is the immutable per-channel configuration named ChannelParams in
// spec.md §3, extended per SPEC_FULL.md §3 with CommitmentFormat and
// BalanceThresholds.
type Params struct {
	ChanID [32]byte

	IsInitiator bool

	Local  SideConfig
	Remote SideConfig

	CommitmentFormat Format

	MinFinalExpiryDelta uint32
	MaxExpiryDelta      uint32

	// DustExposureToleranceBp is the basis-point band, relative to the
	// trim threshold, within which an untrimmed HTLC still counts toward
	// dust exposure (see DustExposure in spec.go).
	DustExposureToleranceBp uint32

	// BalanceThresholds is the htlc_maximum_msat bucketing table,
	// exposed as configuration rather than a hardcoded constant per
	// SPEC_FULL.md §3.
	BalanceThresholds []btcutil.Amount
}
