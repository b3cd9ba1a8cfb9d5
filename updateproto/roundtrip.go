package updateproto

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/invariant"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// RemoteCommitState, Ready and Waiting are the sum type spec.md §4.3 names
// RemoteNextCommitInfo. The concrete type lives in package commitment (see
// DESIGN.md's Open Question decisions) to avoid an import cycle — commitment
// itself must reference the Waiting/Ready states from sendCommit and
// receiveRevocation. These aliases let callers of this package spell the
// names spec.md uses without reaching into commitment directly.
type (
	RemoteCommitState = commitment.RemoteCommitState
	Ready             = commitment.Ready
	Waiting           = commitment.Waiting
)

// ProposeAdd runs the invariant engine against a candidate HTLC and, if it
// passes, appends it to our own change log. in carries the
// LocalSpec/RemoteSpec the caller has already folded the candidate into;
// building those folded Specs is the caller's job (it mirrors whichever commit
// height the candidate would land on), matching spec.md §4.2's requirement
// that checks run against "the commitment(s) that would result".
func ProposeAdd(
	c commitment.Commitments, in invariant.Input,
	update commitment.Update, shuttingDown bool) (commitment.Commitments, error) {

	in.IsOutgoing = true
	in.Candidate = update
	if err := invariant.Run(in); err != nil {
		return commitment.Commitments{}, err
	}
	return commitment.AddLocalProposal(c, shuttingDown, update)
}

// ReceiveAdd mirrors ProposeAdd for an HTLC offered by the counterparty.
func ReceiveAdd(
	c commitment.Commitments, in invariant.Input,
	update commitment.Update) (commitment.Commitments, error) {

	in.IsOutgoing = false
	in.Candidate = update
	if err := invariant.Run(in); err != nil {
		return commitment.Commitments{}, err
	}
	return commitment.AddRemoteProposal(c, update)
}

// Sign runs sendCommit and packages the result as the CommitSig wire message
// to transmit, matching the "sign" leg of the four-message round trip
// (spec.md §4.3).
func Sign(
	chanID lnwire.ChannelID, c commitment.Commitments,
	signer commitment.Signer, builder commitment.TxBuilder,
) (commitment.Commitments, *lnwire.CommitSig, error) {

	next, out, err := commitment.SendCommit(c, signer, builder)
	if err != nil {
		return commitment.Commitments{}, nil, err
	}
	return next, &lnwire.CommitSig{
		ChanID:    chanID,
		CommitSig: out.Sig,
		HtlcSigs:  out.HtlcSigs,
	}, nil
}

// ReceiveSig runs receiveCommit against an incoming CommitSig, then derives
// and packages the RevokeAndAck owed in response — the "revoke" leg.
// nextPoint is this side's per-commitment point for the commitment *after*
// the one it is about to reveal the secret for, a key-derivation concern
// supplied by the caller (spec.md §1 Non-goals).
func ReceiveSig(
	chanID lnwire.ChannelID, c commitment.Commitments,
	signer commitment.Signer, builder commitment.TxBuilder,
	msg *lnwire.CommitSig, nextPoint *btcec.PublicKey,
) (commitment.Commitments, *lnwire.RevokeAndAck, error) {

	next, revOut, err := commitment.ReceiveCommit(c, signer, builder, msg.CommitSig, msg.HtlcSigs)
	if err != nil {
		return commitment.Commitments{}, nil, err
	}

	secret, err := next.ShaChain.Producer.AtHeight(revOut.RevokedCommitHeight)
	if err != nil {
		return commitment.Commitments{}, nil, err
	}

	return next, &lnwire.RevokeAndAck{
		ChanID:            chanID,
		Revocation:        [32]byte(secret),
		NextRevocationKey: nextPoint,
	}, nil
}

// ReceiveRevoke runs receiveRevocation against an incoming RevokeAndAck —
// the "ack" leg that closes out one round trip. expectedPoint validates the
// revealed secret reproduces the point this side recorded as that
// commitment's revocation key (key derivation, supplied by the caller).
func ReceiveRevoke(
	c commitment.Commitments, msg *lnwire.RevokeAndAck,
	revokedHeight uint64, expectedPoint func(shachain.Secret) bool,
) (commitment.Commitments, error) {

	return commitment.ReceiveRevocation(
		c, revokedHeight, shachain.Secret(msg.Revocation), expectedPoint,
	)
}

// UpdateFromWire builds the commitment.Update a propose/receive call expects
// from the wire-level UpdateAddHTLC fields a peer sends or receives,
// matching spec.md §4.3's CMD_ADD_HTLC.
func UpdateFromWire(msg *lnwire.UpdateAddHTLC) commitment.Update {
	return commitment.Update{
		Kind: commitment.Add,
		HTLC: htlc.HTLC{
			ID:            msg.ID,
			Amount:        msg.Amount,
			PaymentHash:   htlc.PaymentHash(msg.PaymentHash),
			CltvExpiry:    msg.Expiry,
			OnionBlob:     append([]byte(nil), msg.OnionBlob[:]...),
			BlindingPoint: msg.BlindingPoint,
		},
	}
}

// WireFromUpdate is the inverse of UpdateFromWire, used when this side is
// the one offering the HTLC and must transmit it.
func WireFromUpdate(chanID lnwire.ChannelID, u commitment.Update) *lnwire.UpdateAddHTLC {
	out := &lnwire.UpdateAddHTLC{
		ChanID:        chanID,
		ID:            u.HTLC.ID,
		Amount:        u.HTLC.Amount,
		PaymentHash:   [32]byte(u.HTLC.PaymentHash),
		Expiry:        u.HTLC.CltvExpiry,
		BlindingPoint: u.HTLC.BlindingPoint,
	}
	copy(out.OnionBlob[:], u.HTLC.OnionBlob)
	return out
}
