package channelfsm

import "github.com/lnchannel/lnchannel/updateproto"

// stepOffline implements spec.md §4.4 OFFLINE: entered whenever the peer
// connection drops from NORMAL or SHUTDOWN. No commitment-mutating command
// is accepted here — only reconnection and the force-close/watcher escape
// hatches that must work regardless of peer connectivity.
func (m *Machine) stepOffline(ev Event) ([]Output, error) {
	switch ev.(type) {
	case Reconnected:
		m.State = Syncing

		reest, err := updateproto.BuildReestablish(m.ChanID, m.Commitments, m.DerivePoint)
		if err != nil {
			return nil, err
		}
		return []Output{Persist{}, SendMessage{Msg: reest}}, nil

	case CmdForceClose:
		return m.forceClose()

	case WatchFundingSpentTriggered:
		return m.forceClose()

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}
