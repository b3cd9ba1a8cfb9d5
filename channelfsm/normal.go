package channelfsm

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/invariant"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/updateproto"
)

// stepNormal implements spec.md §4.4 NORMAL, the state every active channel
// spends most of its life in.
func (m *Machine) stepNormal(ev Event, blockHeight uint32) ([]Output, error) {
	switch e := ev.(type) {
	case CmdAddHTLC:
		return m.handleCmdAddHTLC(e, blockHeight)

	case CmdFulfillHTLC:
		return m.handleLocalSettle(commitment.Update{
			Kind: commitment.Fulfill, HtlcKey: e.Key, Preimage: e.Preimage,
		})

	case CmdFailHTLC:
		return m.handleLocalSettle(commitment.Update{
			Kind: commitment.Fail, HtlcKey: e.Key, FailReason: e.FailReason,
		})

	case CmdFailMalformedHTLC:
		return m.handleLocalSettle(commitment.Update{
			Kind: commitment.FailMalformed, HtlcKey: e.Key,
			FailCode: e.FailCode, ShaOnionBlob: e.ShaOnionBlob,
		})

	case CmdSign:
		return m.sign()

	case CmdUpdateFee:
		return m.handleCmdUpdateFee(e)

	case CmdClose:
		return m.handleCmdClose(e)

	case CmdForceClose:
		return m.forceClose()

	case WireMessage:
		return m.handleWireMessage(e.Msg, blockHeight)

	case NewBlock:
		return m.checkHtlcTimeouts(e.Height)

	case Disconnected:
		return m.handleDisconnect()

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}

func (m *Machine) handleCmdAddHTLC(e CmdAddHTLC, blockHeight uint32) ([]Output, error) {
	update := commitment.Update{Kind: commitment.Add, HTLC: e.HTLC}

	in := m.invariantInput(blockHeight)
	c, err := updateproto.ProposeAdd(m.Commitments, in, update, m.ShuttingDown)
	if err != nil {
		return nil, err
	}
	m.Commitments = c

	added := c.LocalChanges.Updates[len(c.LocalChanges.Updates)-1]
	wireMsg := updateproto.WireFromUpdate(m.ChanID, added)

	return []Output{
		Persist{},
		SendMessage{Msg: wireMsg},
		Notify{Event: "AvailableBalanceChanged"},
	}, nil
}

// handleLocalSettle appends a Fulfill/Fail/FailMalformed to our own change
// log and emits the matching wire message. Whether the upstream HTLC this
// settlement pays forward gets told about it is the relayer collaborator's
// concern, not this machine's (spec.md §1).
func (m *Machine) handleLocalSettle(update commitment.Update) ([]Output, error) {
	c, err := commitment.AddLocalProposal(m.Commitments, m.ShuttingDown, update)
	if err != nil {
		return nil, err
	}
	m.Commitments = c

	var msg lnwire.Message
	switch update.Kind {
	case commitment.Fulfill:
		msg = lnwire.NewUpdateFufillHTLC(m.ChanID, update.HtlcKey.ID, update.Preimage)
	case commitment.Fail:
		msg = &lnwire.UpdateFailHTLC{
			ChanID: m.ChanID, ID: update.HtlcKey.ID, Reason: update.FailReason,
		}
	case commitment.FailMalformed:
		msg = &lnwire.UpdateFailMalformedHTLC{
			ChanID: m.ChanID, ID: update.HtlcKey.ID,
			ShaOnionBlob: update.ShaOnionBlob, FailureCode: update.FailCode,
		}
	}
	return []Output{Persist{}, SendMessage{Msg: msg}}, nil
}

func (m *Machine) handleCmdUpdateFee(e CmdUpdateFee) ([]Output, error) {
	if !m.Commitments.Params.IsInitiator {
		return nil, ErrWrongState{State: m.State, Event: "CmdUpdateFee"}
	}
	c, err := commitment.AddLocalProposal(m.Commitments, false, commitment.Update{
		Kind: commitment.FeeUpdate, FeePerKw: e.FeePerKw,
	})
	if err != nil {
		return nil, err
	}
	m.Commitments = c
	return []Output{Persist{}, SendMessage{Msg: &lnwire.UpdateFee{
		ChanID: m.ChanID, FeePerKw: uint32(e.FeePerKw),
	}}}, nil
}

func (m *Machine) handleCmdClose(e CmdClose) ([]Output, error) {
	if commitment.HasUnsignedLocalChanges(m.Commitments) {
		return nil, ErrChannelHasUnsignedChanges
	}
	m.LocalShutdownScript = e.ScriptPubKey
	m.ShuttingDown = true
	m.State = Shutdown

	outs := []Output{Persist{}, SendMessage{Msg: &lnwire.Shutdown{
		ChanID: m.ChanID, Address: e.ScriptPubKey,
	}}}

	more, err := m.maybeEnterNegotiating()
	if err != nil {
		return nil, err
	}
	return append(outs, more...), nil
}

func (m *Machine) sign() ([]Output, error) {
	c, sigMsg, err := updateproto.Sign(m.ChanID, m.Commitments, m.Signer, m.Builder)
	if err != nil {
		if err == commitment.ErrCannotSignWithoutChanges {
			return nil, nil
		}
		return nil, err
	}
	m.Commitments = c
	m.pendingDiff = &updateproto.PendingCommitDiff{CommitSig: sigMsg}

	outs := []Output{Persist{}, SendMessage{Msg: sigMsg}}
	if m.Config.RevocationTimeoutBlocks > 0 {
		outs = append(outs, ScheduleTimer{Name: "RevocationTimeout"})
	}
	return outs, nil
}

func (m *Machine) handleWireMessage(msg lnwire.Message, blockHeight uint32) ([]Output, error) {
	switch wm := msg.(type) {
	case *lnwire.UpdateAddHTLC:
		update := updateproto.UpdateFromWire(wm)
		in := m.invariantInput(blockHeight)
		c, err := updateproto.ReceiveAdd(m.Commitments, in, update)
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		return nil, nil

	case *lnwire.UpdateFufillHTLC:
		c, err := commitment.AddRemoteProposal(m.Commitments, commitment.Update{
			Kind:      commitment.Fulfill,
			HtlcKey:   htlc.Key{Direction: htlc.Outgoing, ID: wm.ID},
			Preimage:  wm.PaymentPreimage,
		})
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		return nil, nil

	case *lnwire.UpdateFailHTLC:
		c, err := commitment.AddRemoteProposal(m.Commitments, commitment.Update{
			Kind:       commitment.Fail,
			HtlcKey:    htlc.Key{Direction: htlc.Outgoing, ID: wm.ID},
			FailReason: wm.Reason,
		})
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		return nil, nil

	case *lnwire.UpdateFailMalformedHTLC:
		c, err := commitment.AddRemoteProposal(m.Commitments, commitment.Update{
			Kind:         commitment.FailMalformed,
			HtlcKey:      htlc.Key{Direction: htlc.Outgoing, ID: wm.ID},
			FailCode:     wm.FailureCode,
			ShaOnionBlob: wm.ShaOnionBlob,
		})
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		return nil, nil

	case *lnwire.UpdateFee:
		if m.Commitments.Params.IsInitiator {
			return m.fatalProtocolViolation(ErrFeeUpdateFromNonFunder)
		}
		in := m.invariantInput(blockHeight)
		in.IsFeeUpdate = true
		in.ProposedFeePerKw = btcutil.Amount(wm.FeePerKw)
		if err := invariant.Run(in); err != nil {
			return m.fatalProtocolViolation(err)
		}
		c, err := commitment.AddRemoteProposal(m.Commitments, commitment.Update{
			Kind: commitment.FeeUpdate, FeePerKw: btcutil.Amount(wm.FeePerKw),
		})
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		return nil, nil

	case *lnwire.CommitSig:
		c, revoke, err := updateproto.ReceiveSig(
			m.ChanID, m.Commitments, m.Signer, m.Builder, wm, m.NextRevocation(),
		)
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		m.priorRevocation = revoke
		return []Output{Persist{}, SendMessage{Msg: revoke}}, nil

	case *lnwire.RevokeAndAck:
		revokedHeight := uint64(m.Commitments.Current().RemoteCommit.Index)
		c, err := updateproto.ReceiveRevoke(m.Commitments, wm, revokedHeight, m.ExpectedPoint)
		if err != nil {
			return m.fatalProtocolViolation(err)
		}
		m.Commitments = c
		m.pendingDiff = nil
		return []Output{Persist{}}, nil

	case *lnwire.Shutdown:
		m.RemoteShutdownScript = wm.Address
		return m.maybeAdvanceFromShutdown()

	case *lnwire.Error:
		return m.forceClose()

	default:
		return nil, nil
	}
}
