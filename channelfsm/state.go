// Package channelfsm implements the explicit per-channel state machine:
// NORMAL, SHUTDOWN, NEGOTIATING, CLOSING, OFFLINE, SYNCING (spec.md §4.4).
// A Machine.Step call takes one Event and returns the Outputs it produces,
// never blocking — suspension points (wire sends, persistence, tx
// publication, watch registration) are all modeled as Output values for a
// caller to act on asynchronously, matching spec.md §5's actor model.
//
// Grounded on the teacher's peer.go message-dispatch loop (the actual
// per-channel handling a peer goroutine performs) and channel.go's
// channelState enum, generalized from a handful of ad-hoc bools into the
// full closed state set spec.md names.
package channelfsm

import (
	"fmt"

	"github.com/go-errors/errors"
)

// State is one of the six states spec.md §4.4 names.
type State uint8

const (
	Normal State = iota
	Shutdown
	Negotiating
	Closing
	Offline
	Syncing
)

func (s State) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Shutdown:
		return "SHUTDOWN"
	case Negotiating:
		return "NEGOTIATING"
	case Closing:
		return "CLOSING"
	case Offline:
		return "OFFLINE"
	case Syncing:
		return "SYNCING"
	default:
		return "UNKNOWN"
	}
}

// ErrWrongState means an Event arrived that its current State does not
// accept (spec.md §4.4 per-state "Accepts:" lists). Distinct from a
// protocol-violation error: the caller is expected to have already filtered
// events against the channel's advertised state, so this is a defensive,
// should-never-happen guard rather than a peer-facing failure.
type ErrWrongState struct {
	State State
	Event string
}

func (e ErrWrongState) Error() string {
	return errors.New(fmt.Sprintf("channelfsm: event %q not accepted in "+
		"state %s", e.Event, e.State)).Error()
}
