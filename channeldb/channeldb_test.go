package channeldb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "channel.db")
	backend, err := kvdb.Create(
		kvdb.BoltBackendName, dbPath, true, kvdb.DefaultDBTimeout,
	)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	db, err := Open(backend)
	require.NoError(t, err)
	return db
}

func sampleCommitments(t *testing.T) commitment.Commitments {
	t.Helper()

	var seed shachain.Secret
	seed[0] = 0xaa

	spec := commitment.Spec{
		Htlcs: map[htlc.Key]htlc.HTLC{
			{Direction: htlc.Outgoing, ID: 0}: {
				ID:         0,
				Direction:  htlc.Outgoing,
				Amount:     lnwire.MilliSatoshi(100_000_000),
				CltvExpiry: 500_000,
				OnionBlob:  []byte{0x01, 0x02},
			},
		},
		FeePerKw: btcutil.Amount(253),
		ToLocal:  lnwire.MilliSatoshi(900_000_000),
		ToRemote: lnwire.MilliSatoshi(1_000_000_000),
	}

	commitTx := wire.NewMsgTx(2)
	commitTx.AddTxOut(&wire.TxOut{Value: 900_000, PkScript: []byte{0x00, 0x14}})

	return commitment.Commitments{
		Params: commitment.Params{
			ChanID:      [32]byte{1, 2, 3},
			IsInitiator: true,
			Local: commitment.SideConfig{
				DustLimit:        btcutil.Amount(354),
				MaxAcceptedHtlcs: 30,
			},
			Remote: commitment.SideConfig{
				DustLimit:        btcutil.Amount(354),
				MaxAcceptedHtlcs: 30,
			},
			BalanceThresholds: []btcutil.Amount{1_000, 10_000},
		},
		Active: []commitment.Commitment{
			{
				FundingTxID: wire.OutPoint{Index: 0},
				Capacity:    btcutil.Amount(2_000_000),
				LocalCommit: commitment.LocalCommit{
					Index:    4,
					Spec:     spec,
					CommitTx: commitTx,
				},
				RemoteCommit: commitment.RemoteCommit{
					Index:    4,
					Spec:     spec,
					CommitTx: commitTx,
				},
				RemoteState: commitment.Ready{},
			},
		},
		ShaChain: commitment.ShaChainState{
			Producer: shachain.NewProducer(seed),
			Receiver: shachain.NewReceiver(),
		},
	}
}

func TestChannelPutFetchRoundTrip(t *testing.T) {
	db := openTestDB(t)

	orig := sampleCommitments(t)
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, db.PutChannel(orig.Params.ChanID, orig, []byte{0x02, 0x03}, now))

	fetched, err := db.FetchChannel(orig.Params.ChanID)
	require.NoError(t, err)

	require.Equal(t, orig.Params.ChanID, fetched.Params.ChanID)
	require.Len(t, fetched.Active, 1)
	require.Equal(t, orig.Active[0].Capacity, fetched.Active[0].Capacity)
	require.Equal(t, orig.Active[0].LocalCommit.Index, fetched.Active[0].LocalCommit.Index)
	require.Len(t, fetched.Active[0].LocalCommit.Spec.Htlcs, 1)

	closed, err := db.IsChannelClosed(orig.Params.ChanID)
	require.NoError(t, err)
	require.False(t, closed)

	require.NoError(t, db.MarkChannelClosed(orig.Params.ChanID, now))
	closed, err = db.IsChannelClosed(orig.Params.ChanID)
	require.NoError(t, err)
	require.True(t, closed)
}

func TestFetchChannelMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.FetchChannel([32]byte{9, 9, 9})
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestHtlcInfoAppendAndGC(t *testing.T) {
	db := openTestDB(t)

	var chanID [32]byte
	chanID[0] = 7

	for i := int64(0); i < 5; i++ {
		var hash htlc.PaymentHash
		hash[0] = byte(i)
		require.NoError(t, db.PutHtlcInfo(HtlcInfo{
			ChanID:           chanID,
			CommitmentNumber: i,
			PaymentHash:      hash,
			CltvExpiry:       500_000 + uint32(i),
		}))
	}

	infos, err := db.FetchHtlcInfos(chanID)
	require.NoError(t, err)
	require.Len(t, infos, 5)

	require.NoError(t, db.EnqueueGCWorklist(chanID, 3))

	removed, err := db.RunGC(100)
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	infos, err = db.FetchHtlcInfos(chanID)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	for _, info := range infos {
		require.GreaterOrEqual(t, info.CommitmentNumber, int64(3))
	}
}

func TestHtlcInfoGCBoundedBatches(t *testing.T) {
	db := openTestDB(t)

	var chanID [32]byte
	chanID[0] = 8

	for i := int64(0); i < 10; i++ {
		var hash htlc.PaymentHash
		hash[0] = byte(i)
		require.NoError(t, db.PutHtlcInfo(HtlcInfo{
			ChanID:           chanID,
			CommitmentNumber: i,
			PaymentHash:      hash,
		}))
	}

	require.NoError(t, db.EnqueueGCWorklist(chanID, 10))

	removed, err := db.RunGC(4)
	require.NoError(t, err)
	require.Equal(t, 4, removed)

	infos, err := db.FetchHtlcInfos(chanID)
	require.NoError(t, err)
	require.Len(t, infos, 6)

	removed, err = db.RunGC(100)
	require.NoError(t, err)
	require.Equal(t, 6, removed)

	infos, err = db.FetchHtlcInfos(chanID)
	require.NoError(t, err)
	require.Empty(t, infos)
}
