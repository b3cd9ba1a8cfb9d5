// Package contractcourt implements spec.md §4.5's closing and penalty
// logic: once channelfsm hands off a WatchFundingSpentTriggered event, this
// package resolves every contested output of the broadcast commitment
// (ours, theirs, or a revoked one) down to nothing, one ContractResolver
// per output. It does not itself classify which commitment was broadcast.
//
// Grounded on the teacher's contractcourt.htlcTimeoutResolver (the
// incubating -> broadcast -> confirmed -> resolved per-output lifecycle)
// and breacharbiter.go (revoked-commitment retribution).
package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/go-errors/errors"
)

var endian = binary.BigEndian

// errResolverQuitting is returned whenever a resolver's wait is cut short
// by its Quit channel closing, e.g. on daemon shutdown.
var errResolverQuitting = errors.New("contractcourt: resolver quitting")

// errJusticeTxDustOutput is returned when a breach's total claimable value
// wouldn't cover the requested fee, leaving nothing worth sweeping.
var errJusticeTxDustOutput = errors.New("contractcourt: justice tx output below dust after fees")

// errRetributionBucketMissing means Remove was called before any
// retribution was ever Added — normal operation should never do this.
var errRetributionBucketMissing = errors.New("contractcourt: retribution bucket does not exist")

// ClaimKind identifies which witness template a resolver's output needs.
// Persisted as a single byte so a resolver can be rehydrated from disk
// without storing a witness-generating closure alongside it; the actual
// closure is re-attached by ResolverKit.GenWitness, keyed off this value,
// once the channel's live signer is available again.
type ClaimKind uint8

const (
	// ClaimDirectCLTV claims an outgoing HTLC output on the
	// counterparty's commitment directly, via the CLTV timeout clause.
	ClaimDirectCLTV ClaimKind = iota

	// ClaimSecondLevelTimeout claims our own commitment's outgoing HTLC
	// via the signed second-level timeout transaction, then sweeps that
	// transaction's CSV-delayed output.
	ClaimSecondLevelTimeout

	// ClaimDirectPreimage claims an incoming HTLC output on the
	// counterparty's commitment directly, via the preimage.
	ClaimDirectPreimage

	// ClaimSecondLevelSuccess claims our own commitment's incoming HTLC
	// via the signed second-level success transaction.
	ClaimSecondLevelSuccess

	// ClaimCommitToLocal sweeps our own commitment's to-local output
	// after its CSV delay has passed.
	ClaimCommitToLocal

	// ClaimBreachPenalty claims an output on a revoked commitment the
	// counterparty published, via the penalty/revocation path.
	ClaimBreachPenalty
)

// SpendDetail describes an observed spend of a watched outpoint.
type SpendDetail struct {
	SpentOutPoint  *wire.OutPoint
	SpendingTx     *wire.MsgTx
	SpenderTxHash  *chainhash.Hash
	SpendingHeight int32
}

// SpendEvent is returned by ChainNotifier.RegisterSpendNtfn. Spend fires
// exactly once, with the confirmed spending transaction.
type SpendEvent struct {
	Spend chan *SpendDetail
}

// TxConfirmation reports a transaction reaching the requested depth.
type TxConfirmation struct {
	BlockHash   *chainhash.Hash
	BlockHeight uint32
	Tx          *wire.MsgTx
}

// ConfirmationEvent is returned by ChainNotifier.RegisterConfirmationsNtfn.
type ConfirmationEvent struct {
	Confirmed chan *TxConfirmation
}

// ChainNotifier is the narrow chain-backend seam every resolver waits on:
// spends of a contested output, and confirmations of a transaction the
// resolver itself published. The concrete backend (neutrino, bitcoind zmq,
// a full node's RPC) is entirely outside this module's scope (spec.md §1).
type ChainNotifier interface {
	RegisterSpendNtfn(outpoint *wire.OutPoint, pkScript []byte, heightHint uint32) (*SpendEvent, error)
	RegisterConfirmationsNtfn(txid *chainhash.Hash, pkScript []byte, numConfs, heightHint uint32) (*ConfirmationEvent, error)
}

// WitnessGenerator produces the witness needed to satisfy input inputIndex
// of tx, for the claim kind it was requested against.
type WitnessGenerator func(kind ClaimKind, tx *wire.MsgTx, inputIndex int) (wire.TxWitness, error)

// SweepResult reports a Sweeper's eventual outcome for one input.
type SweepResult struct {
	Tx  *wire.MsgTx
	Err error
}

// Sweeper requests a fee-bumped claim of a single on-chain input. Grounded
// on the teacher's sweep package input-set/yield model, narrowed to a
// single-input seam: the aggregation, RBF, and CPFP-via-anchor logic stay
// entirely inside the Sweeper implementation, which this package treats as
// an opaque collaborator (spec.md §1).
type Sweeper interface {
	SweepInput(op wire.OutPoint, kind ClaimKind, pkScript []byte,
		value int64) (chan SweepResult, error)
}

// ResolutionMsg reports a resolved HTLC's final outcome back to whatever
// forwarded it, spec.md §4.5's "notify upstream once resolved".
type ResolutionMsg struct {
	ShortChanID uint64
	HtlcIndex   uint64

	// Preimage is set when the HTLC resolved by being claimed with its
	// preimage (we can now safely settle it upstream too).
	Preimage *[32]byte

	// Failed is set when the HTLC resolved by timing out unclaimed.
	Failed bool
}

// ResolverKit bundles the collaborators every ContractResolver needs.
// Attached once, either right after construction or right after Decode,
// via AttachResolverKit.
type ResolverKit struct {
	ChanPoint   wire.OutPoint
	ShortChanID uint64

	Notifier ChainNotifier
	Sweeper  Sweeper

	GenWitness WitnessGenerator

	DeliverResolutionMsg func(ResolutionMsg) error
	Checkpoint           func(ContractResolver) error

	Quit chan struct{}
}

// ContractResolver reduces one contested on-chain output — an HTLC, the
// to-local balance, a breach output — down to nothing, stepping through
// whatever wait-for-spend/wait-for-confirmation sequence its kind
// requires. Grounded on the teacher's ContractResolver interface and its
// incubating -> broadcast -> confirmed -> resolved lifecycle.
type ContractResolver interface {
	// ResolverKey uniquely identifies this resolver's output, for
	// persistence and dedup.
	ResolverKey() []byte

	// Resolve drives the output towards resolution, blocking until
	// either it's fully resolved or Quit fires. A non-nil
	// ContractResolver return means resolution produced a follow-on
	// resolver (e.g. a second-level transaction's own CSV-delayed
	// output) that must itself be tracked.
	Resolve() (ContractResolver, error)

	// IsResolved reports whether the contract no longer needs tracking.
	IsResolved() bool

	// Stop signals Resolve to abandon its wait and return.
	Stop()

	Encode(w io.Writer) error
	Decode(r io.Reader) error

	// AttachResolverKit re-attaches the live collaborators to a resolver
	// freshly decoded from disk.
	AttachResolverKit(r ResolverKit)
}

func writeOutPoint(w io.Writer, op *wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, endian, op.Index)
}

func readOutPoint(r io.Reader, op *wire.OutPoint) error {
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return err
	}
	return binary.Read(r, endian, &op.Index)
}

func writeVarBytes(w io.Writer, b []byte) error {
	return wire.WriteVarBytes(w, 0, b)
}

func readVarBytes(r io.Reader, maxLen uint32) ([]byte, error) {
	return wire.ReadVarBytes(r, 0, maxLen, "contractcourt")
}
