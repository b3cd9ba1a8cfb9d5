package commitment

import "fmt"

// ErrCannotSignWithoutChanges is returned by sendCommit when there are no
// pending local proposals and no newly-acked remote proposals to commit to
// — signing would produce a byte-identical commitment, which spec.md §4.1
// forbids.
var ErrCannotSignWithoutChanges = fmt.Errorf("commitment: no pending changes to sign")

// ErrChannelShuttingDown is returned by addLocalProposal when an Add is
// attempted after Shutdown has been sent or received (spec.md §4.1).
var ErrChannelShuttingDown = fmt.Errorf("commitment: cannot add new HTLC, channel is shutting down")

// ErrUnexpectedHtlcID is fatal: the remote party proposed an Add whose ID
// does not match our expected next ID for their log, indicating either a
// bug or a replay (spec.md §4.1 addRemoteProposal).
type ErrUnexpectedHtlcID struct {
	Expected uint64
	Got      uint64
}

func (e ErrUnexpectedHtlcID) Error() string {
	return fmt.Sprintf("commitment: unexpected htlc id: expected %d, got %d",
		e.Expected, e.Got)
}

// ErrInvalidCommitSig is fatal: the remote party's signature on the new
// local commitment does not verify. Grounded on the teacher's
// InvalidCommitSigError (lnwallet/channel.go).
type ErrInvalidCommitSig struct {
	CommitHeight int64
}

func (e ErrInvalidCommitSig) Error() string {
	return fmt.Sprintf("commitment: invalid commit signature for "+
		"commitment height %d", e.CommitHeight)
}

// ErrInvalidHtlcSig is fatal: one of the remote party's signatures on an
// untrimmed HTLC output does not verify.
type ErrInvalidHtlcSig struct {
	OutputIndex int
}

func (e ErrInvalidHtlcSig) Error() string {
	return fmt.Sprintf("commitment: invalid htlc signature for output "+
		"index %d", e.OutputIndex)
}

// ErrHtlcSigCountMismatch is fatal: the number of HTLC signatures supplied
// does not equal the number of untrimmed HTLC outputs on the commitment
// being signed, per spec.md §4.3's CommitSig validation rule.
type ErrHtlcSigCountMismatch struct {
	Expected int
	Got      int
}

func (e ErrHtlcSigCountMismatch) Error() string {
	return fmt.Sprintf("commitment: htlc sig count mismatch: expected "+
		"%d, got %d", e.Expected, e.Got)
}

// ErrNotWaitingForRevocation is returned by receiveRevocation when no
// commitment is currently awaiting a revocation (i.e. RemoteState is
// already Ready). A well-behaved peer never sends an unsolicited
// RevokeAndAck.
var ErrNotWaitingForRevocation = fmt.Errorf("commitment: received revocation while not waiting for one")

// ErrInvalidRevocation is fatal: the revealed per-commitment secret does
// not hash/derive to the point we were previously given for that
// commitment height (spec.md §4.3's RevokeAndAck validation: "Mismatch is
// fatal").
var ErrInvalidRevocation = fmt.Errorf("commitment: revealed secret does not match expected per-commitment point")
