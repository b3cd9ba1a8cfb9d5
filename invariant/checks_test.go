package invariant

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

func baseParams() commitment.Params {
	return commitment.Params{
		IsInitiator:      true,
		CommitmentFormat: commitment.FormatDefault,
		Local: commitment.SideConfig{
			DustLimit:            btcutil.Amount(546),
			ChanReserve:          btcutil.Amount(20_000),
			MaxAcceptedHtlcs:     30,
			MaxHtlcValueInFlight: lnwire.NewMSatFromSatoshis(1_000_000_000),
			HtlcMinimum:          lnwire.NewMSatFromSatoshis(1),
			MaxDustExposure:      btcutil.Amount(25_000),
		},
		Remote: commitment.SideConfig{
			DustLimit:            btcutil.Amount(546),
			ChanReserve:          btcutil.Amount(20_000),
			MaxAcceptedHtlcs:     30,
			MaxHtlcValueInFlight: lnwire.NewMSatFromSatoshis(1_000_000_000),
			HtlcMinimum:          lnwire.NewMSatFromSatoshis(1),
			MaxDustExposure:      btcutil.Amount(25_000),
		},
		MinFinalExpiryDelta: 18,
		MaxExpiryDelta:      2016,
	}
}

// TestReserveDipRejection mirrors spec.md scenario S2: the funder (Alice)
// proposes an HTLC that would leave her balance below reserve+fees.
func TestReserveDipRejection(t *testing.T) {
	params := baseParams()

	// Fee(format, 10_000 sat/kw, 0 untrimmed htlcs, true) = 7_240 sat, so
	// reserve(20_000)+fees(7_240) = 27_240 sat is the funder's floor.
	// 27_239 sat leaves the funder one satoshi short of it.
	localSpec := commitment.Spec{
		Htlcs:    map[htlc.Key]htlc.HTLC{},
		FeePerKw: 10_000,
		ToLocal:  lnwire.NewMSatFromSatoshis(27_239),
		ToRemote: lnwire.NewMSatFromSatoshis(200_000_000),
	}

	in := Input{
		Params:     params,
		LocalSpec:  localSpec,
		RemoteSpec: localSpec,
		Candidate: commitment.Update{
			Kind: commitment.Add,
			HTLC: htlc.HTLC{
				Amount:     lnwire.NewMSatFromSatoshis(50_000),
				CltvExpiry: 1000,
			},
		},
		IsOutgoing:         true,
		CurrentBlockHeight: 800,
	}

	err := Run(in)
	require.Error(t, err)
	require.IsType(t, InsufficientFunds{}, err)
}

// TestDustExposureCap exercises the same shape as spec.md scenario S3: a
// series of small outgoing HTLCs, all below the offered-HTLC trim threshold, whose
// accumulated value exceeds the configured maxExposure.
func TestDustExposureCap(t *testing.T) {
	params := baseParams()
	params.DustExposureToleranceBp = 0
	params.Local.MaxDustExposure = btcutil.Amount(1_200)

	htlcs := map[htlc.Key]htlc.HTLC{}
	// At feerate 1000 sat/kw and dustLimit 546, the offered-HTLC trim
	// threshold is 546 + 1000*663/1000 = 1209 sat, so every amount below
	// counts toward exposure.
	amounts := []uint64{500, 250, 400, 501}
	for i, sat := range amounts {
		h := htlc.HTLC{
			ID:        uint64(i),
			Direction: htlc.Outgoing,
			Amount:    lnwire.NewMSatFromSatoshis(btcutil.Amount(sat)),
		}
		htlcs[h.Key()] = h
	}

	spec := commitment.Spec{
		Htlcs:    htlcs,
		FeePerKw: 1_000,
		ToLocal:  lnwire.NewMSatFromSatoshis(798_000_000),
		ToRemote: lnwire.NewMSatFromSatoshis(200_000_000),
	}

	in := Input{
		Params:             params,
		LocalSpec:          spec,
		RemoteSpec:         spec,
		CurrentBlockHeight: 800,
	}

	err := checkDustExposure(in)
	require.Error(t, err)
	require.IsType(t, LocalDustHtlcExposureTooHigh{}, err)
}

func TestExpiryTooSmallRejected(t *testing.T) {
	params := baseParams()
	in := Input{
		Params:             params,
		CurrentBlockHeight: 800,
		Candidate: commitment.Update{
			Kind: commitment.Add,
			HTLC: htlc.HTLC{CltvExpiry: 810},
		},
	}
	err := checkExpiryTooSmall(in)
	require.Error(t, err)
	require.IsType(t, ExpiryTooSmall{}, err)
}

func TestClosingInProgressRejectsAdd(t *testing.T) {
	params := baseParams()
	in := Input{
		Params:       params,
		ShuttingDown: true,
		Candidate:    commitment.Update{Kind: commitment.Add},
	}
	err := checkClosingInProgress(in)
	require.Error(t, err)
	require.IsType(t, NoMoreHtlcsClosingInProgress{}, err)
}
