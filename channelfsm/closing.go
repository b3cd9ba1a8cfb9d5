package channelfsm

// stepClosing implements spec.md §4.4 CLOSING: a terminal state reached
// from a force close, a cooperative close, or the watcher observing the
// counterparty publish a commitment (current or revoked). Re-entry from any
// of those triggers is idempotent. CLOSING reports the watcher's
// WatchFundingSpentTriggered as a FundingSpent notification (penalty/claim
// logic lives in the contractcourt package), re-publishes our commitment on
// CmdForceClose, and ignores wire messages and disconnects.
func (m *Machine) stepClosing(ev Event) ([]Output, error) {
	switch e := ev.(type) {
	case WatchFundingSpentTriggered:
		return []Output{Notify{Event: "FundingSpent", Data: e.TxID}}, nil

	case WireMessage:
		return nil, nil

	case CmdForceClose:
		// Already closing; re-publishing our own commitment is
		// harmless and sometimes necessary after a crash restart.
		return m.forceClose()

	case Disconnected:
		return nil, nil

	default:
		return nil, ErrWrongState{State: m.State, Event: ev.Name()}
	}
}
