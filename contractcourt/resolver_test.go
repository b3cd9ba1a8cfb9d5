package contractcourt

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/htlc"
)

type fakeNotifier struct {
	confirmed chan *TxConfirmation
	spent     chan *SpendDetail
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		confirmed: make(chan *TxConfirmation, 1),
		spent:     make(chan *SpendDetail, 1),
	}
}

func (f *fakeNotifier) RegisterSpendNtfn(op *wire.OutPoint, pkScript []byte, heightHint uint32) (*SpendEvent, error) {
	return &SpendEvent{Spend: f.spent}, nil
}

func (f *fakeNotifier) RegisterConfirmationsNtfn(txid *chainhash.Hash, pkScript []byte, numConfs, heightHint uint32) (*ConfirmationEvent, error) {
	return &ConfirmationEvent{Confirmed: f.confirmed}, nil
}

type fakeSweeper struct{}

func (fakeSweeper) SweepInput(op wire.OutPoint, kind ClaimKind, pkScript []byte, value int64) (chan SweepResult, error) {
	ch := make(chan SweepResult, 1)
	ch <- SweepResult{Tx: wire.NewMsgTx(2)}
	return ch, nil
}

func newTestKit(notifier *fakeNotifier) ResolverKit {
	return ResolverKit{
		ChanPoint:   wire.OutPoint{Index: 0},
		ShortChanID: 1,
		Notifier:    notifier,
		Sweeper:     fakeSweeper{},
		DeliverResolutionMsg: func(ResolutionMsg) error {
			return nil
		},
		Checkpoint: func(ContractResolver) error { return nil },
		Quit:       make(chan struct{}),
	}
}

func TestHtlcTimeoutResolverDirectClaim(t *testing.T) {
	notifier := newFakeNotifier()
	res := NewHtlcTimeoutResolver(OutgoingHtlcResolution{
		ClaimOutpoint: wire.OutPoint{Index: 0},
		SweepPkScript: []byte{0x00},
		SweepValue:    50_000,
		HTLC:          htlc.HTLC{ID: 4, Direction: htlc.Outgoing},
	}, 800, newTestKit(notifier))

	done := make(chan error, 1)
	go func() {
		_, err := res.Resolve()
		done <- err
	}()

	notifier.spent <- &SpendDetail{}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("resolver did not finish")
	}

	require.True(t, res.IsResolved())
}

func TestHtlcTimeoutResolverSecondLevel(t *testing.T) {
	notifier := newFakeNotifier()

	secondLevelTx := wire.NewMsgTx(2)
	secondLevelTx.AddTxOut(&wire.TxOut{PkScript: []byte{0x01}, Value: 10_000})

	res := NewHtlcTimeoutResolver(OutgoingHtlcResolution{
		ClaimOutpoint:   wire.OutPoint{Index: 1},
		SweepPkScript:   []byte{0x00},
		SweepValue:      10_000,
		SignedTimeoutTx: secondLevelTx,
		HTLC:            htlc.HTLC{ID: 7, Direction: htlc.Outgoing},
	}, 800, newTestKit(notifier))

	done := make(chan error, 1)
	go func() {
		_, err := res.Resolve()
		done <- err
	}()

	notifier.confirmed <- &TxConfirmation{}
	notifier.spent <- &SpendDetail{}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("resolver did not finish")
	}

	require.True(t, res.IsResolved())
}

func TestHtlcTimeoutResolverStopUnblocks(t *testing.T) {
	notifier := newFakeNotifier()
	res := NewHtlcTimeoutResolver(OutgoingHtlcResolution{
		ClaimOutpoint: wire.OutPoint{Index: 2},
		SweepPkScript: []byte{0x00},
		HTLC:          htlc.HTLC{ID: 1},
	}, 800, newTestKit(notifier))

	done := make(chan error, 1)
	go func() {
		_, err := res.Resolve()
		done <- err
	}()

	res.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("resolver did not unblock on Stop")
	}
}
