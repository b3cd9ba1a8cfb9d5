package channelactor

import (
	"github.com/lnchannel/lnchannel/channelfsm"
	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/lnwire"
)

// PeerConn delivers wire messages to the channel's counterparty. One
// concrete implementation lives per connected peer; the actor never knows
// about sockets, framing, or reconnect logic.
type PeerConn interface {
	SendMessage(msg lnwire.Message) error
}

// ChannelStore durably persists a channel's Commitments and FSM State. It
// is the actor's only route to disk, matching spec.md §5's requirement
// that persistence complete before any wire Output ahead of it in the same
// batch is acted on.
type ChannelStore interface {
	PersistChannel(chanID lnwire.ChannelID, c commitment.Commitments, state channelfsm.State) error
}

// TxPublisher broadcasts a fully-signed transaction to the network.
type TxPublisher interface {
	PublishTransaction(tx []byte, label string) error
}

// ChainWatcher registers the confirmation and spend watches CLOSING and
// OFFLINE rely on to learn when a commitment or closing transaction has
// been mined, or when a contested output has been swept by either party.
type ChainWatcher interface {
	WatchTxConfirmed(txid [32]byte, label string) error
	WatchOutputSpent(txid [32]byte, index uint32) error
}

// EventNotifier fans a channelfsm.Notify Output out to whatever in-process
// subscribers care (RPC streams, the channel graph, balance trackers).
type EventNotifier interface {
	NotifyChannelEvent(chanID lnwire.ChannelID, event string, data interface{})
}

// Collaborators bundles every external dependency an Actor drains its
// Machine's Outputs into. All five are required; a nil field panics on
// first use rather than silently dropping an Output.
type Collaborators struct {
	Peer      PeerConn
	Store     ChannelStore
	Publisher TxPublisher
	Watcher   ChainWatcher
	Notifier  EventNotifier
}
