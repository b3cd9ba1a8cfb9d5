package channelfsm

import (
	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/lnwire"
)

// stepShutdown implements spec.md §4.4 SHUTDOWN: no new HTLCs may be
// offered in either direction, but in-flight ones still drain normally
// until both commitments are HTLC-free, at which point the machine advances
// to NEGOTIATING.
func (m *Machine) stepShutdown(ev Event, blockHeight uint32) ([]Output, error) {
	switch e := ev.(type) {
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
		outs, err := m.sign()
		if err != nil || outs == nil {
			return outs, err
		}
		more, merr := m.maybeEnterNegotiating()
		if merr != nil {
			return nil, merr
		}
		return append(outs, more...), nil

	case CmdForceClose:
		return m.forceClose()

	case WireMessage:
		return m.handleShutdownWireMessage(e.Msg, blockHeight)

	case Disconnected:
		return m.handleDisconnect()

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}

func (m *Machine) handleShutdownWireMessage(msg lnwire.Message, blockHeight uint32) ([]Output, error) {
	switch wm := msg.(type) {
	case *lnwire.UpdateFufillHTLC, *lnwire.UpdateFailHTLC, *lnwire.UpdateFailMalformedHTLC,
		*lnwire.CommitSig, *lnwire.RevokeAndAck:
		outs, err := m.handleWireMessage(wm, blockHeight)
		if err != nil || m.State != Shutdown {
			return outs, err
		}
		more, merr := m.maybeEnterNegotiating()
		if merr != nil {
			return nil, merr
		}
		return append(outs, more...), nil

	case *lnwire.UpdateAddHTLC:
		return m.fatalProtocolViolation(ErrNewHtlcAfterShutdown)

	case *lnwire.UpdateFee:
		return m.handleWireMessage(wm, blockHeight)

	case *lnwire.Shutdown:
		m.RemoteShutdownScript = wm.Address
		return m.maybeEnterNegotiating()

	case *lnwire.Error:
		return m.forceClose()

	default:
		return nil, nil
	}
}
