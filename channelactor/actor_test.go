package channelactor

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/channelfsm"
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

type fakeCollaborators struct {
	mu       sync.Mutex
	sent     []lnwire.Message
	persists int
	notifies []string
}

func (f *fakeCollaborators) SendMessage(msg lnwire.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeCollaborators) PersistChannel(lnwire.ChannelID, commitment.Commitments, channelfsm.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persists++
	return nil
}

func (f *fakeCollaborators) PublishTransaction(tx []byte, label string) error { return nil }

func (f *fakeCollaborators) WatchTxConfirmed(txid [32]byte, label string) error { return nil }
func (f *fakeCollaborators) WatchOutputSpent(txid [32]byte, index uint32) error { return nil }

func (f *fakeCollaborators) NotifyChannelEvent(chanID lnwire.ChannelID, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifies = append(f.notifies, event)
}

func (f *fakeCollaborators) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestActor(t *testing.T) (*Actor, *fakeCollaborators) {
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

	m := channelfsm.NewMachine(lnwire.ChannelID{0x01}, channelfsm.Config{}, c, fakeSigner{}, fakeBuilder{})
	m.DerivePoint = func(shachain.Secret) *btcec.PublicKey { return nil }
	m.ExpectedPoint = func(shachain.Secret) bool { return true }
	m.NextRevocation = func() *btcec.PublicKey { return nil }

	collabs := &fakeCollaborators{}
	actor := NewActor(lnwire.ChannelID{0x01}, Config{
		HtlcTimeoutCheckInterval: time.Hour,
	}, m, Collaborators{
		Peer:      collabs,
		Store:     collabs,
		Publisher: collabs,
		Watcher:   collabs,
		Notifier:  collabs,
	}, 800)

	return actor, collabs
}

func TestActorAddHTLCDrainsOutputs(t *testing.T) {
	actor, collabs := newTestActor(t)
	actor.Start()
	defer actor.Stop()

	actor.Push(channelfsm.CmdAddHTLC{HTLC: htlc.HTLC{
		Amount:     lnwire.NewMSatFromSatoshis(50_000),
		CltvExpiry: 850,
	}})

	require.Eventually(t, func() bool {
		return collabs.sentCount() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestActorStopIsClean(t *testing.T) {
	actor, _ := newTestActor(t)
	actor.Start()
	actor.Stop()
}
