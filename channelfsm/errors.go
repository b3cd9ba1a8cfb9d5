package channelfsm

import "github.com/go-errors/errors"

// ErrChannelHasUnsignedChanges is returned when CMD_CLOSE is issued while
// the local change log still holds a proposal the remote party hasn't
// cross-signed yet (spec.md §4.4 NORMAL's CMD_CLOSE gate).
var ErrChannelHasUnsignedChanges = errors.New("channelfsm: cannot close, unsigned local changes pending")

// ErrFeeUpdateFromNonFunder is fatal: only the channel's funder may ever
// send UpdateFee (spec.md §4.4).
var ErrFeeUpdateFromNonFunder = errors.New("channelfsm: received fee update from non-funder")

// ErrNewHtlcAfterShutdown is fatal: the remote party offered a new HTLC
// after Shutdown was sent or received, violating spec.md §4.4 SHUTDOWN's
// "no new HTLCs" rule.
var ErrNewHtlcAfterShutdown = errors.New("channelfsm: received new HTLC after shutdown")
