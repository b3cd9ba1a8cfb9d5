package channelfsm

import (
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/updateproto"
)

// stepSyncing implements spec.md §4.3 Reestablishment / §4.4 SYNCING: waits
// for the counterparty's own ChannelReestablish, resolves whichever of the
// two sides owes a retransmit, and returns to NORMAL (or SHUTDOWN, if
// Shutdown had already been exchanged before the disconnect).
func (m *Machine) stepSyncing(ev Event) ([]Output, error) {
	switch e := ev.(type) {
	case WireMessage:
		reest, ok := e.Msg.(*lnwire.ChannelReestablish)
		if !ok {
			return nil, nil
		}
		return m.handleReestablish(reest)

	case CmdForceClose:
		return m.forceClose()

	case Disconnected:
		m.State = Offline
		return []Output{Persist{}}, nil

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}

func (m *Machine) handleReestablish(reest *lnwire.ChannelReestablish) ([]Output, error) {
	result, err := updateproto.Resync(m.Commitments, reest, m.priorRevocation, m.pendingDiff)
	if err != nil {
		return m.forceClose()
	}

	outs := []Output{Persist{}}
	if result.Revocation != nil {
		outs = append(outs, SendMessage{Msg: result.Revocation})
	}
	for _, msg := range result.ReplayUpdates {
		outs = append(outs, SendMessage{Msg: msg})
	}
	if result.CommitSig != nil {
		outs = append(outs, SendMessage{Msg: result.CommitSig})
	}

	if m.ShuttingDown {
		m.State = Shutdown
		if m.LocalShutdownScript != nil {
			outs = append(outs, SendMessage{Msg: &lnwire.Shutdown{
				ChanID: m.ChanID, Address: m.LocalShutdownScript,
			}})
		}
	} else {
		m.State = Normal
	}

	return outs, nil
}
