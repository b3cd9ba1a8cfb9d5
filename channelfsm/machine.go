package channelfsm

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/invariant"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
	"github.com/lnchannel/lnchannel/updateproto"
)

// Machine is one channel's full runtime state: its FSM position plus the
// Commitments it drives. It is intentionally not safe for concurrent use —
// spec.md §5 assigns exactly one actor (goroutine) per channel, and that
// actor is the only thing ever allowed to call Step.
type Machine struct {
	ChanID lnwire.ChannelID
	Config Config

	State       State
	Commitments commitment.Commitments

	// ShuttingDown mirrors having sent or received Shutdown; once true,
	// invariant.Input.ShuttingDown is set on every admission check.
	ShuttingDown bool

	// LocalShutdownScript/RemoteShutdownScript are recorded once each
	// side's Shutdown has been seen, so NEGOTIATING can build the closing
	// transaction's outputs.
	LocalShutdownScript, RemoteShutdownScript []byte

	// lastFeeOffered/lastFeeReceived track the NEGOTIATING fee ladder.
	lastFeeOffered  btcutil.Amount
	lastFeeReceived btcutil.Amount

	// priorRevocation/pendingDiff are retained across a round trip solely
	// so Resync can replay them if the peer reconnects before
	// acknowledging them (see updateproto.Resync).
	priorRevocation *lnwire.RevokeAndAck
	pendingDiff     *updateproto.PendingCommitDiff

	Signer  commitment.Signer
	Builder commitment.TxBuilder

	DerivePoint    updateproto.DerivePoint
	ExpectedPoint  func(shachain.Secret) bool
	NextRevocation func() *btcec.PublicKey
}

// NewMachine constructs a Machine in NORMAL, the state every channel starts
// in once it has reached an active Commitments (channel opening itself is
// an external collaborator, spec.md §1).
func NewMachine(
	chanID lnwire.ChannelID, cfg Config, c commitment.Commitments,
	signer commitment.Signer, builder commitment.TxBuilder) *Machine {

	return &Machine{
		ChanID:      chanID,
		Config:      cfg,
		State:       Normal,
		Commitments: c,
		Signer:      signer,
		Builder:     builder,
	}
}

// invariantInput builds the common invariant.Input fields shared by every
// admission check Step performs, ahead of the caller filling in the
// candidate-specific fields.
func (m *Machine) invariantInput(blockHeight uint32) invariant.Input {
	cur := m.Commitments.Current()
	return invariant.Input{
		Params:             m.Commitments.Params,
		LocalSpec:          cur.LocalCommit.Spec,
		RemoteSpec:         cur.RemoteCommit.Spec,
		CurrentBlockHeight: blockHeight,
		ShuttingDown:       m.ShuttingDown,
	}
}

// Step processes one Event against the machine's current State, returning
// the Outputs it produces. An Event not accepted by the current state
// yields ErrWrongState rather than being silently ignored, per spec.md
// §4.4's explicit per-state accept lists.
func (m *Machine) Step(ev Event, blockHeight uint32) ([]Output, error) {
	switch m.State {
	case Normal:
		return m.stepNormal(ev, blockHeight)
	case Shutdown:
		return m.stepShutdown(ev, blockHeight)
	case Negotiating:
		return m.stepNegotiating(ev)
	case Closing:
		return m.stepClosing(ev)
	case Offline:
		return m.stepOffline(ev)
	case Syncing:
		return m.stepSyncing(ev)
	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}
