package commitment

import (
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchannel/lnchannel/htlc"
)

// Signer is the narrow, opaque signing collaborator spec.md §1 carves out
// of scope ("Transaction signing primitives and key derivation, consumed as
// opaque operations"). This package never touches a private key directly;
// every signature it needs is produced or checked through this interface,
// matching how the teacher's LightningChannel holds a Signer field rather
// than key material.
type Signer interface {
	// SignCommitTx returns our signature on the given commitment
	// transaction, to be sent to the counterparty.
	SignCommitTx(tx *wire.MsgTx) (*ecdsa.Signature, error)

	// SignHtlcTx returns our signature on the second-stage transaction
	// spending the HTLC output at outputIndex of tx.
	SignHtlcTx(tx *wire.MsgTx, outputIndex int) (*ecdsa.Signature, error)

	// VerifyCommitSig checks a counterparty-supplied signature against
	// the given commitment transaction.
	VerifyCommitSig(tx *wire.MsgTx, sig *ecdsa.Signature) error

	// VerifyHtlcSig checks a counterparty-supplied signature on the
	// second-stage transaction spending the HTLC output at outputIndex.
	VerifyHtlcSig(tx *wire.MsgTx, outputIndex int, sig *ecdsa.Signature) error
}

// TxBuilder constructs the commitment transaction and its second-stage HTLC
// transactions for a given Spec. Also an opaque collaborator: transaction
// construction depends on key derivation (per-commitment points, basepoint
// tweaking) that spec.md §1 places out of scope.
type TxBuilder interface {
	// CommitTx builds the commitment transaction for spec, from the
	// point of view of whoever owns it (ownerIsLocal), returning the
	// untrimmed HTLCs in the output-index order their second-stage
	// signatures must follow.
	CommitTx(
		params Params, spec Spec, ownerIsLocal bool,
	) (tx *wire.MsgTx, untrimmedHtlcs []HtlcOutput, err error)

	// HtlcTx builds the second-stage transaction spending the HTLC
	// output at outputIndex of commitTx.
	HtlcTx(
		params Params, commitTx *wire.MsgTx, outputIndex int,
		ownerIsLocal bool,
	) (*wire.MsgTx, error)

	// ClosingTx builds the cooperative closing transaction paying the
	// funding output's entire remaining balance to localScript and
	// remoteScript, less the given total fee (spec.md §4.4
	// NEGOTIATING).
	ClosingTx(
		params Params, fee btcutil.Amount, localScript, remoteScript []byte,
	) (*wire.MsgTx, error)
}

// HtlcOutput pairs an HTLC with the output index it landed at on a
// just-built commitment transaction.
type HtlcOutput struct {
	OutputIndex int
	HTLC        htlc.HTLC
}
