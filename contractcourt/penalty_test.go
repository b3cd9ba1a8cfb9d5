package contractcourt

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestCreateJusticeTxAggregatesAllOutputs(t *testing.T) {
	r := &retributionInfo{
		selfOutput: &breachedOutput{
			amt:      btcutil.Amount(500_000),
			outpoint: wire.OutPoint{Index: 0},
			kind:     ClaimBreachPenalty,
		},
		revokedOutput: &breachedOutput{
			amt:      btcutil.Amount(300_000),
			outpoint: wire.OutPoint{Index: 1},
			kind:     ClaimBreachPenalty,
		},
		htlcOutputs: []*breachedOutput{
			{amt: btcutil.Amount(50_000), outpoint: wire.OutPoint{Index: 2}, kind: ClaimBreachPenalty},
		},
	}

	var sawKinds []ClaimKind
	genWitness := func(kind ClaimKind, tx *wire.MsgTx, idx int) (wire.TxWitness, error) {
		sawKinds = append(sawKinds, kind)
		return wire.TxWitness{[]byte{byte(idx)}}, nil
	}

	fee := btcutil.Amount(5_000)
	tx, err := createJusticeTx(r, []byte{0x00}, fee, genWitness)
	require.NoError(t, err)

	require.Len(t, tx.TxIn, 3)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, int64(500_000+300_000+50_000-5_000), tx.TxOut[0].Value)
	require.Len(t, sawKinds, 3)

	for i, in := range tx.TxIn {
		require.NotEmpty(t, in.Witness)
		require.Equal(t, byte(i), in.Witness[0][0])
	}
}

func TestCreateJusticeTxRejectsDustAfterFee(t *testing.T) {
	r := &retributionInfo{
		selfOutput: &breachedOutput{
			amt:      btcutil.Amount(1_000),
			outpoint: wire.OutPoint{Index: 0},
			kind:     ClaimBreachPenalty,
		},
	}

	genWitness := func(ClaimKind, *wire.MsgTx, int) (wire.TxWitness, error) {
		return wire.TxWitness{{0x01}}, nil
	}

	_, err := createJusticeTx(r, []byte{0x00}, btcutil.Amount(5_000), genWitness)
	require.ErrorIs(t, err, errJusticeTxDustOutput)
}

func TestRetributionCodecRoundTrip(t *testing.T) {
	orig := &retributionInfo{
		chanPoint: wire.OutPoint{Index: 7},
		selfOutput: &breachedOutput{
			amt:      btcutil.Amount(123_000),
			outpoint: wire.OutPoint{Index: 0},
			kind:     ClaimBreachPenalty,
		},
		htlcOutputs: []*breachedOutput{
			{amt: btcutil.Amount(4_000), outpoint: wire.OutPoint{Index: 3}, kind: ClaimBreachPenalty},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, orig.Encode(&buf))

	decoded := &retributionInfo{}
	require.NoError(t, decoded.Decode(&buf))

	require.Equal(t, orig.chanPoint, decoded.chanPoint)
	require.Equal(t, orig.selfOutput.amt, decoded.selfOutput.amt)
	require.Nil(t, decoded.revokedOutput)
	require.Len(t, decoded.htlcOutputs, 1)
	require.Equal(t, orig.htlcOutputs[0].outpoint, decoded.htlcOutputs[0].outpoint)
}
