package channelfsm

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// Event is the closed set of inputs Step accepts: local commands, inbound
// wire messages, and environment/collaborator signals. Matches spec.md
// §4.4's per-state "Accepts:" lists.
type Event interface {
	isEvent()
	Name() string
}

// CmdAddHTLC is CMD_ADD_HTLC: a local request to offer a new HTLC.
type CmdAddHTLC struct {
	HTLC htlc.HTLC
}

func (CmdAddHTLC) isEvent()     {}
func (CmdAddHTLC) Name() string { return "CmdAddHTLC" }

// CmdFulfillHTLC is CMD_FULFILL_HTLC: settle an HTLC we received with its
// preimage.
type CmdFulfillHTLC struct {
	Key      htlc.Key
	Preimage [32]byte
}

func (CmdFulfillHTLC) isEvent()     {}
func (CmdFulfillHTLC) Name() string { return "CmdFulfillHTLC" }

// CmdFailHTLC is CMD_FAIL_HTLC: fail an HTLC we received.
type CmdFailHTLC struct {
	Key        htlc.Key
	FailReason []byte
}

func (CmdFailHTLC) isEvent()     {}
func (CmdFailHTLC) Name() string { return "CmdFailHTLC" }

// CmdFailMalformedHTLC is CMD_FAIL_MALFORMED_HTLC.
type CmdFailMalformedHTLC struct {
	Key          htlc.Key
	FailCode     lnwire.FailCode
	ShaOnionBlob [32]byte
}

func (CmdFailMalformedHTLC) isEvent()     {}
func (CmdFailMalformedHTLC) Name() string { return "CmdFailMalformedHTLC" }

// CmdSign is CMD_SIGN: sign a new commitment for the counterparty now.
type CmdSign struct{}

func (CmdSign) isEvent()     {}
func (CmdSign) Name() string { return "CmdSign" }

// CmdUpdateFee is CMD_UPDATE_FEE: propose a new commitment feerate. Only
// valid when the local side is the channel's funder.
type CmdUpdateFee struct {
	FeePerKw btcutil.Amount
}

func (CmdUpdateFee) isEvent()     {}
func (CmdUpdateFee) Name() string { return "CmdUpdateFee" }

// CmdClose is CMD_CLOSE: begin a cooperative close.
type CmdClose struct {
	ScriptPubKey []byte
}

func (CmdClose) isEvent()     {}
func (CmdClose) Name() string { return "CmdClose" }

// CmdForceClose is CMD_FORCECLOSE: unilaterally close by publishing our own
// commitment.
type CmdForceClose struct{}

func (CmdForceClose) isEvent()     {}
func (CmdForceClose) Name() string { return "CmdForceClose" }

// WireMessage wraps any inbound message from the counterparty.
type WireMessage struct {
	Msg lnwire.Message
}

func (WireMessage) isEvent()     {}
func (WireMessage) Name() string { return "WireMessage" }

// NewBlock reports the chain tip advancing, for CLTV-driven checks (HTLC
// timeout races, expiry admission control).
type NewBlock struct {
	Height uint32
}

func (NewBlock) isEvent()     {}
func (NewBlock) Name() string { return "NewBlock" }

// Disconnected reports the peer connection dropping.
type Disconnected struct{}

func (Disconnected) isEvent()     {}
func (Disconnected) Name() string { return "Disconnected" }

// Reconnected reports the peer connection being re-established; the
// ChannelReestablish exchange itself arrives as WireMessage events.
type Reconnected struct{}

func (Reconnected) isEvent()     {}
func (Reconnected) Name() string { return "Reconnected" }

// TimerFired reports a previously-scheduled ScheduleTimer Output elapsing.
type TimerFired struct {
	Name string
}

func (TimerFired) isEvent()     {}
func (TimerFired) Name() string { return "TimerFired" }

// WatchFundingSpentTriggered reports the watcher observing a spend of the
// funding output — the trigger for every closing/penalty branch (spec.md
// §4.5).
type WatchFundingSpentTriggered struct {
	Tx *commitment.Commitment
	// TxID is the txid of the actual spending transaction the watcher
	// observed, classified against Tx's known candidate commit IDs by the
	// caller before this event is constructed.
	TxID [32]byte
}

func (WatchFundingSpentTriggered) isEvent()     {}
func (WatchFundingSpentTriggered) Name() string { return "WatchFundingSpentTriggered" }
