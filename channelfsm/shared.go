package channelfsm

import (
	"bytes"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// forceClose transitions into CLOSING by publishing our own latest local
// commitment transaction, per spec.md §4.5's unilateral-close path. Used for
// both CmdForceClose and any fatal protocol violation (an inbound Error, or
// a Step that would otherwise corrupt Commitments).
func (m *Machine) forceClose() ([]Output, error) {
	tx := m.Commitments.Current().LocalCommit.CommitTx

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}

	m.State = Closing

	txid := tx.TxHash()
	return []Output{
		Persist{},
		PublishTx{Tx: buf.Bytes(), Description: "local force close"},
		WatchTx{TxID: txid, Description: "local force close confirmation"},
	}, nil
}

// fatalProtocolViolation is the common handler for any error a Step detects
// that leaves Commitments in a state it can no longer safely continue from:
// it sends the counterparty an Error carrying the cause, force-closes,
// emits a LocalChannelDown notification, and surfaces err to the caller for
// logging, matching spec.md §7 Tier 2 ("channel-fatal: force close and
// report").
func (m *Machine) fatalProtocolViolation(cause error) ([]Output, error) {
	closeOuts, closeErr := m.forceClose()
	if closeErr != nil {
		return nil, closeErr
	}
	outs := []Output{SendMessage{Msg: &lnwire.Error{
		ChanID: m.ChanID,
		Data:   []byte(cause.Error()),
	}}}
	outs = append(outs, closeOuts...)
	outs = append(outs, Notify{Event: "LocalChannelDown"})
	return outs, cause
}

// handleDisconnect transitions into OFFLINE. Any local HTLC we'd proposed
// but that the remote party never cross-signed is failed back immediately
// (spec.md §4.4 OFFLINE: "local HTLCs not yet signed by the remote party are
// failed back with DisconnectedBeforeSigned"), since the remote party can
// never have forwarded something it never saw committed.
func (m *Machine) handleDisconnect() ([]Output, error) {
	m.State = Offline

	outs := []Output{Persist{}, Notify{Event: "ChannelInactive"}}

	for _, u := range m.Commitments.LocalChanges.Updates {
		if u.Kind != commitment.Add || u.AddCommitHeightRemote != 0 {
			continue
		}
		outs = append(outs, Notify{
			Event: "DisconnectedBeforeSigned",
			Data:  u.HTLC.Key(),
		})
	}

	return outs, nil
}

// checkHtlcTimeouts implements the per-block race check NORMAL runs: an
// HTLC we accepted, forwarded, and already fulfilled downstream must not be
// allowed to expire upstream with its preimage unrecoverable, so once the
// current block height comes within FulfillSafetyBeforeTimeout of an
// incoming HTLC's CltvExpiry, the channel force-closes rather than risk
// losing the preimage race (spec.md §4.4 NORMAL).
func (m *Machine) checkHtlcTimeouts(blockHeight uint32) ([]Output, error) {
	margin := m.Config.FulfillSafetyBeforeTimeout

	fulfilled := make(map[htlc.Key]struct{})
	for _, u := range m.Commitments.LocalChanges.Updates {
		if u.Kind == commitment.Fulfill {
			fulfilled[u.HtlcKey] = struct{}{}
		}
	}

	for _, h := range m.Commitments.Current().LocalCommit.Spec.Htlcs {
		if h.Direction != htlc.Incoming {
			continue
		}
		if _, ok := fulfilled[h.Key()]; !ok {
			continue
		}
		if h.CltvExpiry <= blockHeight+margin {
			return m.forceClose()
		}
	}

	return nil, nil
}

// maybeAdvanceFromShutdown is invoked when a Shutdown message is received:
// it marks the channel as shutting down and moves NORMAL to SHUTDOWN at
// once, to drain in-flight HTLCs before negotiating a closing transaction
// (spec.md §4.4 SHUTDOWN). If our own shutdown script is already set, it
// then checks whether NEGOTIATING can begin (maybeEnterNegotiating).
func (m *Machine) maybeAdvanceFromShutdown() ([]Output, error) {
	m.ShuttingDown = true
	if m.State == Normal {
		m.State = Shutdown
	}
	outs := []Output{Persist{}}
	if m.LocalShutdownScript == nil {
		return outs, nil
	}
	return m.maybeEnterNegotiating()
}

// maybeEnterNegotiating moves SHUTDOWN to NEGOTIATING once both sides have
// exchanged Shutdown and every HTLC has drained from both commitments
// (spec.md §4.4 SHUTDOWN "-> NEGOTIATING once htlcs.isEmpty on both
// commitments").
func (m *Machine) maybeEnterNegotiating() ([]Output, error) {
	if m.LocalShutdownScript == nil || m.RemoteShutdownScript == nil {
		return nil, nil
	}
	cur := m.Commitments.Current()
	if len(cur.LocalCommit.Spec.Htlcs) != 0 || len(cur.RemoteCommit.Spec.Htlcs) != 0 {
		return nil, nil
	}

	m.State = Negotiating
	return []Output{Persist{}, Notify{Event: "ClosingNegotiationStarted"}}, nil
}
