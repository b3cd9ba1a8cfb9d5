package updateproto

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// DerivePoint turns a revealed per-commitment secret into the public point
// it corresponds to. Key derivation is out of scope (spec.md §1); callers
// supply their real implementation, tests a deterministic fake.
type DerivePoint func(shachain.Secret) *btcec.PublicKey

// BuildReestablish produces the ChannelReestablish we should send on
// reconnection, grounded on the teacher's ChanSyncMsg: report the height of
// the next CommitSig we expect, the height of the last RevokeAndAck we sent,
// and (for data-loss protection) the secret and point proving we hold that
// state.
func BuildReestablish(
	chanID lnwire.ChannelID, c commitment.Commitments,
	derive DerivePoint) (*lnwire.ChannelReestablish, error) {

	localHeight := uint64(c.Current().LocalCommit.Index)
	remoteTailHeight := uint64(c.Current().RemoteCommit.Index)

	var lastSecret shachain.Secret
	if remoteTailHeight != 0 {
		secret, err := c.ShaChain.Producer.AtHeight(remoteTailHeight - 1)
		if err != nil {
			return nil, err
		}
		lastSecret = secret
	}

	currentSecret, err := c.ShaChain.Producer.AtHeight(localHeight)
	if err != nil {
		return nil, err
	}

	return &lnwire.ChannelReestablish{
		ChanID:                 chanID,
		NextLocalCommitHeight:     localHeight + 1,
		RemoteCommitTailHeight:    remoteTailHeight,
		LastRemoteCommitSecret:    [32]byte(lastSecret),
		LocalUnrevokedCommitPoint: derive(currentSecret),
	}, nil
}

// ResyncResult bundles the messages Resync decides must be replayed. Each
// of CommitSig and Revocation is populated at most once, and both are set
// when we owe the remote party a revocation and a commitment (spec.md
// §4.3): a peer can owe the other side at most one pending message of each
// kind at any time.
type ResyncResult struct {
	// Revocation, if non-nil, is the RevokeAndAck we already sent for our
	// prior commitment, to be resent because the remote party claims not
	// to have received it.
	Revocation *lnwire.RevokeAndAck

	// CommitSig, if non-nil, is the CommitSig (plus the log updates that
	// produced it) to resend because the remote party's reported
	// NextLocalCommitHeight shows they never received our last one.
	CommitSig *lnwire.CommitSig

	// ReplayUpdates are the Add/Fulfill/Fail/FeeUpdate messages that must
	// be resent immediately before CommitSig, in the order they were
	// originally sent.
	ReplayUpdates []lnwire.Message
}

// PendingCommitDiff is the data callers must retain from the last SendCommit
// call in order to replay it verbatim on resync: the exact messages sent for
// the updates folded into that commitment, plus the CommitSig itself. The
// commitment package's immutable Commitments value doesn't retain wire-level
// messages (it only tracks logical Update values), so this is carried
// alongside it by the caller — mirroring the teacher's own persisted
// CommitDiff record.
type PendingCommitDiff struct {
	LogUpdates []lnwire.Message
	CommitSig  *lnwire.CommitSig
}

// Resync implements the three branches of spec.md §4.3 Reestablishment
// (we owe a revocation, we owe a commitment, we're in sync) plus the
// data-loss-protection branch, grounded on the teacher's ProcessChanSyncMsg.
//
// priorRevocation is the RevokeAndAck this side sent for its previous local
// commitment (nil if none has ever been sent). pendingDiff is non-nil only
// when this side has an un-acked remote commitment outstanding.
func Resync(
	c commitment.Commitments, msg *lnwire.ChannelReestablish,
	priorRevocation *lnwire.RevokeAndAck,
	pendingDiff *PendingCommitDiff) (*ResyncResult, error) {

	remoteChainTipHeight := uint64(c.Current().RemoteCommit.Index)
	_, oweCommitment := c.Current().RemoteState.(commitment.Waiting)
	oweCommitment = oweCommitment && msg.NextLocalCommitHeight == remoteChainTipHeight

	localTailHeight := uint64(c.Current().LocalCommit.Index)
	oweRevocation := localTailHeight == msg.RemoteCommitTailHeight+1

	hasRecoveryOptions := msg.LocalUnrevokedCommitPoint != nil
	commitSecretCorrect := true
	if hasRecoveryOptions && msg.RemoteCommitTailHeight != 0 {
		heightSecret, err := c.ShaChain.Producer.AtHeight(msg.RemoteCommitTailHeight - 1)
		if err != nil {
			return nil, err
		}
		commitSecretCorrect = bytes.Equal(heightSecret[:], msg.LastRemoteCommitSecret[:])
	}
	if !commitSecretCorrect {
		return nil, ErrInvalidLastCommitSecret
	}

	result := &ResyncResult{}

	switch {
	case oweRevocation:
		if priorRevocation == nil {
			return nil, ErrCannotSyncCommitChains
		}
		result.Revocation = priorRevocation

	case msg.RemoteCommitTailHeight > localTailHeight && hasRecoveryOptions && commitSecretCorrect:
		return nil, ErrCommitSyncDataLoss

	case !oweRevocation && localTailHeight != msg.RemoteCommitTailHeight:
		return nil, ErrCannotSyncCommitChains
	}

	switch {
	case oweCommitment:
		if pendingDiff == nil {
			return nil, ErrCannotSyncCommitChains
		}
		result.ReplayUpdates = pendingDiff.LogUpdates
		result.CommitSig = pendingDiff.CommitSig

	case !oweCommitment && remoteChainTipHeight+1 != msg.NextLocalCommitHeight:
		return nil, ErrCannotSyncCommitChains
	}

	return result, nil
}
