package updateproto

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/invariant"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

type fakeSigner struct{}

func (fakeSigner) SignCommitTx(tx *wire.MsgTx) (*ecdsa.Signature, error) {
	return &ecdsa.Signature{}, nil
}
func (fakeSigner) SignHtlcTx(tx *wire.MsgTx, outputIndex int) (*ecdsa.Signature, error) {
	return &ecdsa.Signature{}, nil
}
func (fakeSigner) VerifyCommitSig(tx *wire.MsgTx, sig *ecdsa.Signature) error { return nil }
func (fakeSigner) VerifyHtlcSig(tx *wire.MsgTx, outputIndex int, sig *ecdsa.Signature) error {
	return nil
}

type fakeBuilder struct{}

func (fakeBuilder) CommitTx(params commitment.Params, spec commitment.Spec, ownerIsLocal bool) (*wire.MsgTx, []commitment.HtlcOutput, error) {
	return wire.NewMsgTx(2), nil, nil
}
func (fakeBuilder) HtlcTx(params commitment.Params, commitTx *wire.MsgTx, outputIndex int, ownerIsLocal bool) (*wire.MsgTx, error) {
	return wire.NewMsgTx(2), nil
}
func (fakeBuilder) ClosingTx(params commitment.Params, fee btcutil.Amount, localScript, remoteScript []byte) (*wire.MsgTx, error) {
	return wire.NewMsgTx(2), nil
}

func newCommitments(t *testing.T) commitment.Commitments {
	t.Helper()
	params := commitment.Params{
		CommitmentFormat: commitment.FormatDefault,
		Local: commitment.SideConfig{
			DustLimit:            btcutil.Amount(546),
			ChanReserve:          btcutil.Amount(10_000),
			MaxAcceptedHtlcs:     30,
			MaxHtlcValueInFlight: lnwire.NewMSatFromSatoshis(1_000_000_000),
			HtlcMinimum:          lnwire.NewMSatFromSatoshis(1),
			MaxDustExposure:      btcutil.Amount(50_000),
		},
		Remote: commitment.SideConfig{
			DustLimit:            btcutil.Amount(546),
			ChanReserve:          btcutil.Amount(10_000),
			MaxAcceptedHtlcs:     30,
			MaxHtlcValueInFlight: lnwire.NewMSatFromSatoshis(1_000_000_000),
			HtlcMinimum:          lnwire.NewMSatFromSatoshis(1),
			MaxDustExposure:      btcutil.Amount(50_000),
		},
		MinFinalExpiryDelta: 18,
		MaxExpiryDelta:      2016,
	}

	genesis := commitment.Spec{
		Htlcs:    map[htlc.Key]htlc.HTLC{},
		FeePerKw: 10_000,
		ToLocal:  lnwire.NewMSatFromSatoshis(800_000),
		ToRemote: lnwire.NewMSatFromSatoshis(200_000),
	}

	var seed shachain.Secret
	seed[0] = 0x42

	return commitment.Commitments{
		Params: params,
		Active: []commitment.Commitment{
			{
				LocalCommit:  commitment.LocalCommit{Index: 0, Spec: genesis},
				RemoteCommit: commitment.RemoteCommit{Index: 0, Spec: genesis},
				RemoteState:  commitment.Ready{},
			},
		},
		ShaChain: commitment.ShaChainState{
			Producer: shachain.NewProducer(seed),
			Receiver: shachain.NewReceiver(),
		},
	}
}

func TestProposeAddThenRoundTrip(t *testing.T) {
	c := newCommitments(t)
	chanID := lnwire.ChannelID{0x01}

	update := commitment.Update{
		Kind: commitment.Add,
		HTLC: htlc.HTLC{
			Amount:     lnwire.NewMSatFromSatoshis(50_000),
			CltvExpiry: 850,
		},
	}

	in := invariant.Input{
		Params:             c.Params,
		LocalSpec:          c.Current().RemoteCommit.Spec,
		RemoteSpec:         c.Current().RemoteCommit.Spec,
		CurrentBlockHeight: 800,
	}

	c, err := ProposeAdd(c, in, update, false)
	require.NoError(t, err)

	c, sigMsg, err := Sign(chanID, c, fakeSigner{}, fakeBuilder{})
	require.NoError(t, err)
	require.Equal(t, chanID, sigMsg.ChanID)

	_, ok := c.Current().RemoteState.(Waiting)
	require.True(t, ok)
}

func TestResyncInSync(t *testing.T) {
	c := newCommitments(t)
	chanID := lnwire.ChannelID{0x02}

	derive := func(shachain.Secret) *btcec.PublicKey { return nil }

	msg, err := BuildReestablish(chanID, c, derive)
	require.NoError(t, err)
	require.Equal(t, uint64(1), msg.NextLocalCommitHeight)
	require.Equal(t, uint64(0), msg.RemoteCommitTailHeight)

	result, err := Resync(c, msg, nil, nil)
	require.NoError(t, err)
	require.Nil(t, result.Revocation)
	require.Nil(t, result.CommitSig)
}

func TestResyncDataLoss(t *testing.T) {
	c := newCommitments(t)

	key, _ := btcec.NewPrivateKey()
	fakePoint := key.PubKey()

	secret, err := c.ShaChain.Producer.AtHeight(4)
	require.NoError(t, err)

	msg := &lnwire.ChannelReestablish{
		ChanID:                    lnwire.ChannelID{0x03},
		NextLocalCommitHeight:     1,
		RemoteCommitTailHeight:    5,
		LastRemoteCommitSecret:    [32]byte(secret),
		LocalUnrevokedCommitPoint: fakePoint,
	}

	_, err = Resync(c, msg, nil, nil)
	require.ErrorIs(t, err, ErrCommitSyncDataLoss)
}
