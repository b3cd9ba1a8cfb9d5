package contractcourt

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// breachedOutput contains everything needed to sweep a single output we're
// now entitled to because the counterparty broadcast a revoked commitment.
//
// Grounded on the teacher's breachedOutput (breacharbiter.go); the
// witnessType+SignDescriptor split is replaced by a single ClaimKind, in
// keeping with the rest of this package's WitnessGenerator seam.
type breachedOutput struct {
	amt      btcutil.Amount
	outpoint wire.OutPoint
	kind     ClaimKind
}

// retributionInfo encapsulates everything needed to sweep all the
// contested funds within a channel whose counterparty broadcast a revoked
// commitment. Used to build the justice transaction that claims every
// output of the breaching commitment in a single spend.
type retributionInfo struct {
	commitHash chainhash.Hash
	chanPoint  wire.OutPoint

	selfOutput    *breachedOutput
	revokedOutput *breachedOutput
	htlcOutputs   []*breachedOutput
}

// breachedOutputs returns every output this retribution claims, in the
// fixed order createJusticeTx assigns them as inputs.
func (r *retributionInfo) breachedOutputs() []*breachedOutput {
	outs := make([]*breachedOutput, 0, 2+len(r.htlcOutputs))
	if r.selfOutput != nil {
		outs = append(outs, r.selfOutput)
	}
	if r.revokedOutput != nil {
		outs = append(outs, r.revokedOutput)
	}
	outs = append(outs, r.htlcOutputs...)
	return outs
}

// createJusticeTx builds a transaction that sweeps every output of a
// breaching commitment — the revoked to-remote balance, our own
// revocation claim on their to-local output, and every HTLC output,
// batched together so the whole breach is punished in one confirmation
// (spec.md §4.5 point 4, "aggregate penalty across multiple HTLC txs if
// batched") — into a single output under sweepPkScript, less feeAmt.
//
// Grounded on the teacher's breachArbiter.createJusticeTx; witness
// construction is delegated to genWitness rather than built inline, since
// this package no longer owns a SignDescriptor/WitnessType registry.
func createJusticeTx(r *retributionInfo, sweepPkScript []byte,
	feeAmt btcutil.Amount, genWitness WitnessGenerator) (*wire.MsgTx, error) {

	outputs := r.breachedOutputs()

	var totalAmt btcutil.Amount
	for _, out := range outputs {
		totalAmt += out.amt
	}
	if totalAmt <= feeAmt {
		return nil, errJusticeTxDustOutput
	}

	justiceTx := wire.NewMsgTx(2)
	justiceTx.AddTxOut(&wire.TxOut{
		PkScript: sweepPkScript,
		Value:    int64(totalAmt - feeAmt),
	})

	for _, out := range outputs {
		justiceTx.AddTxIn(&wire.TxIn{PreviousOutPoint: out.outpoint})
	}

	for i, out := range outputs {
		witness, err := genWitness(out.kind, justiceTx, i)
		if err != nil {
			return nil, err
		}
		justiceTx.TxIn[i].Witness = witness
	}

	return justiceTx, nil
}
