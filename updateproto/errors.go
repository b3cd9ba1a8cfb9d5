// Package updateproto drives the propose -> sign -> revoke -> ack update
// round trip over the commitment and shachain packages, and resynchronizes
// two sides' commitment chains on reconnect.
//
// Grounded on the teacher's lnwallet/channel.go: SignNextCommitment,
// ReceiveNewCommitment, RevokeCurrentCommitment, ReceiveRevocation drive the
// round trip; ProcessChanSyncMsg/ChanSyncMsg drive reestablishment. Unlike
// the teacher, which holds state on a mutated LightningChannel, every
// function here takes and returns a commitment.Commitments value, matching
// the immutability discipline the commitment package already established.
package updateproto

import (
	"github.com/go-errors/errors"
)

// ErrCommitSyncDataLoss is returned from Resync when the remote party's
// reported commitment height, combined with a valid data-loss-protection
// secret, proves we have fallen behind and lost state. The channel must be
// force-closed from the (stale) commitment we still hold; continuing to
// exchange updates would let the counterparty punish us.
var ErrCommitSyncDataLoss = errors.New("possible commitment state data loss")

// ErrCannotSyncCommitChains means the two sides' reported heights cannot be
// reconciled by resending a single pending CommitSig/RevokeAndAck — a
// protocol violation serious enough to borrk the channel.
var ErrCannotSyncCommitChains = errors.New("unable to sync commit chains")

// ErrInvalidLastCommitSecret means the remote party's ChannelReestablish
// carried a data-loss-protection secret that does not reproduce the
// commitment point we recorded for that height.
var ErrInvalidLastCommitSecret = errors.New("remote provided invalid commit secret")
