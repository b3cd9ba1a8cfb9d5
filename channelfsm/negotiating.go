package channelfsm

import (
	"bytes"

	"github.com/lnchannel/lnchannel/lnwire"
)

// stepNegotiating implements spec.md §4.4 NEGOTIATING by answering the
// counterparty's ClosingSigned messages (see handleClosingSigned). The
// machine sends no opening ClosingSigned of its own on entering this
// state, so the counterparty makes the first offer. An Error message or
// CmdForceClose force-closes; a disconnect moves to SYNCING.
func (m *Machine) stepNegotiating(ev Event) ([]Output, error) {
	switch e := ev.(type) {
	case WireMessage:
		cs, ok := e.Msg.(*lnwire.ClosingSigned)
		if !ok {
			if _, ok := e.Msg.(*lnwire.Error); ok {
				return m.forceClose()
			}
			return nil, nil
		}
		return m.handleClosingSigned(cs)

	case CmdForceClose:
		return m.forceClose()

	case Disconnected:
		m.State = Syncing
		return []Output{Persist{}, Notify{Event: "ChannelInactive"}}, nil

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}

// handleClosingSigned advances the fee ladder: if the received fee matches
// our own last offer, the negotiation has converged and the signed closing
// transaction is published; otherwise we counter-offer, biased halfway
// between the two, mirroring the teacher's proposeCommonFee mechanism
// (lnwallet/channel.go's fee negotiation in the original BOLT #2
// closing_negotiation flow this machine generalizes).
func (m *Machine) handleClosingSigned(cs *lnwire.ClosingSigned) ([]Output, error) {
	m.lastFeeReceived = cs.FeeSatoshis

	if m.lastFeeOffered != 0 && m.lastFeeOffered == cs.FeeSatoshis {
		tx, err := m.Builder.ClosingTx(m.Commitments.Params, cs.FeeSatoshis,
			m.LocalShutdownScript, m.RemoteShutdownScript)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := tx.Serialize(&buf); err != nil {
			return nil, err
		}

		m.State = Closing
		txid := tx.TxHash()
		return []Output{
			Persist{},
			PublishTx{Tx: buf.Bytes(), Description: "cooperative close"},
			WatchTx{TxID: txid, Description: "cooperative close confirmation"},
		}, nil
	}

	counter := cs.FeeSatoshis
	if m.lastFeeOffered != 0 {
		counter = (m.lastFeeOffered + cs.FeeSatoshis) / 2
	}
	m.lastFeeOffered = counter

	tx, err := m.Builder.ClosingTx(m.Commitments.Params, counter,
		m.LocalShutdownScript, m.RemoteShutdownScript)
	if err != nil {
		return nil, err
	}
	sig, err := m.Signer.SignCommitTx(tx)
	if err != nil {
		return nil, err
	}

	return []Output{Persist{}, SendMessage{Msg: &lnwire.ClosingSigned{
		ChanID:      m.ChanID,
		FeeSatoshis: counter,
		Signature:   sig,
	}}}, nil
}
