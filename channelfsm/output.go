package channelfsm

import "github.com/lnchannel/lnchannel/lnwire"

// Output is the closed set of side effects a Step call can request. The
// machine itself never performs I/O; a caller drains the returned []Output
// and executes each against its real collaborators (peer connection,
// persistence, chain backend), matching spec.md §5's "the actor never
// blocks; it posts async work to collaborators" suspension model.
type Output interface {
	isOutput()
}

// SendMessage requests transmission of a wire message to the channel's
// counterparty.
type SendMessage struct {
	Msg lnwire.Message
}

func (SendMessage) isOutput() {}

// Persist requests that the channel's current Commitments (and, where
// relevant, its new State) be durably written before any of the Outputs
// that follow it in the same Step's return value are acted on. spec.md §5:
// "persistence is synchronous with respect to wire output".
type Persist struct{}

func (Persist) isOutput() {}

// PublishTx requests broadcast of a fully-signed transaction.
type PublishTx struct {
	Tx          []byte
	Description string
}

func (PublishTx) isOutput() {}

// WatchTx requests a confirmation watch on a transaction the machine just
// published (or is waiting to observe).
type WatchTx struct {
	TxID        [32]byte
	Description string
}

func (WatchTx) isOutput() {}

// WatchOutputSpent requests a spend watch on an output the counterparty may
// race to claim (used for contested outputs during closing).
type WatchOutputSpent struct {
	TxID  [32]byte
	Index uint32
}

func (WatchOutputSpent) isOutput() {}

// Notify requests an internal event be published to other in-process
// collaborators (the relayer, channel graph, RPC subscribers).
type Notify struct {
	Event string
	Data  interface{}
}

func (Notify) isOutput() {}

// ScheduleTimer requests a one-shot timer; if it fires before being
// canceled, the machine expects a matching TimerFired Event to be delivered
// back to Step. Used for RevocationTimeout (spec.md §5).
type ScheduleTimer struct {
	Name string
}

func (ScheduleTimer) isOutput() {}
