package channelfsm

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
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

func newTestMachine(t *testing.T) *Machine {
	t.Helper()

	params := commitment.Params{
		CommitmentFormat: commitment.FormatDefault,
		IsInitiator:      true,
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
		ToLocal:  lnwire.NewMSatFromSatoshis(800_000_000),
		ToRemote: lnwire.NewMSatFromSatoshis(200_000_000),
	}

	var seed shachain.Secret
	seed[0] = 0x42

	c := commitment.Commitments{
		Params: params,
		Active: []commitment.Commitment{
			{
				LocalCommit:  commitment.LocalCommit{Index: 0, Spec: genesis, CommitTx: wire.NewMsgTx(2)},
				RemoteCommit: commitment.RemoteCommit{Index: 0, Spec: genesis, CommitTx: wire.NewMsgTx(2)},
				RemoteState:  commitment.Ready{},
			},
		},
		ShaChain: commitment.ShaChainState{
			Producer: shachain.NewProducer(seed),
			Receiver: shachain.NewReceiver(),
		},
	}

	m := NewMachine(lnwire.ChannelID{0x01}, Config{}, c, fakeSigner{}, fakeBuilder{})
	m.DerivePoint = func(shachain.Secret) *btcec.PublicKey { return nil }
	m.ExpectedPoint = func(shachain.Secret) bool { return true }
	m.NextRevocation = func() *btcec.PublicKey { return nil }
	return m
}

func TestStepNormalAddHTLC(t *testing.T) {
	m := newTestMachine(t)

	outs, err := m.Step(CmdAddHTLC{HTLC: htlc.HTLC{
		Amount:     lnwire.NewMSatFromSatoshis(50_000),
		CltvExpiry: 850,
	}}, 800)
	require.NoError(t, err)
	require.NotEmpty(t, outs)

	var sawSend bool
	for _, o := range outs {
		if _, ok := o.(SendMessage); ok {
			sawSend = true
		}
	}
	require.True(t, sawSend)
	require.Equal(t, Normal, m.State)
}

func TestStepNormalCloseRejectedWithUnsignedChanges(t *testing.T) {
	m := newTestMachine(t)

	_, err := m.Step(CmdAddHTLC{HTLC: htlc.HTLC{
		Amount:     lnwire.NewMSatFromSatoshis(50_000),
		CltvExpiry: 850,
	}}, 800)
	require.NoError(t, err)

	_, err = m.Step(CmdClose{ScriptPubKey: []byte{0x00}}, 800)
	require.ErrorIs(t, err, ErrChannelHasUnsignedChanges)
	require.Equal(t, Normal, m.State)
}

func TestStepNormalSignMovesRemoteStateToWaiting(t *testing.T) {
	m := newTestMachine(t)

	_, err := m.Step(CmdAddHTLC{HTLC: htlc.HTLC{
		Amount:     lnwire.NewMSatFromSatoshis(50_000),
		CltvExpiry: 850,
	}}, 800)
	require.NoError(t, err)

	outs, err := m.Step(CmdSign{}, 800)
	require.NoError(t, err)
	require.NotEmpty(t, outs)

	_, waiting := m.Commitments.Current().RemoteState.(commitment.Waiting)
	require.True(t, waiting)
}

func TestDisconnectReconnectCycle(t *testing.T) {
	m := newTestMachine(t)

	outs, err := m.Step(Disconnected{}, 800)
	require.NoError(t, err)
	require.Equal(t, Offline, m.State)
	require.NotEmpty(t, outs)

	outs, err = m.Step(Reconnected{}, 800)
	require.NoError(t, err)
	require.Equal(t, Syncing, m.State)

	var reest *lnwire.ChannelReestablish
	for _, o := range outs {
		if sm, ok := o.(SendMessage); ok {
			if r, ok := sm.Msg.(*lnwire.ChannelReestablish); ok {
				reest = r
			}
		}
	}
	require.NotNil(t, reest)

	outs, err = m.Step(WireMessage{Msg: reest}, 800)
	require.NoError(t, err)
	require.Equal(t, Normal, m.State)
	_ = outs
}

func TestForceCloseFromNormal(t *testing.T) {
	m := newTestMachine(t)

	outs, err := m.Step(CmdForceClose{}, 800)
	require.NoError(t, err)
	require.Equal(t, Closing, m.State)

	var sawPublish bool
	for _, o := range outs {
		if _, ok := o.(PublishTx); ok {
			sawPublish = true
		}
	}
	require.True(t, sawPublish)
}

func TestWrongStateEventRejected(t *testing.T) {
	m := newTestMachine(t)
	m.State = Closing

	_, err := m.Step(CmdAddHTLC{}, 800)
	require.Error(t, err)
	require.IsType(t, ErrWrongState{}, err)
}
