package channelfsm

import "github.com/btcsuite/btcd/btcutil"

// Config bundles the policy knobs the machine needs beyond the static
// commitment.Params already carried by a Commitments value: timing and
// tolerance parameters that belong to how a channel is *operated* rather
// than what it structurally allows.
type Config struct {
	// FulfillSafetyBeforeTimeout is the block-count margin spec.md §4.4
	// NORMAL requires before force-closing over a soon-to-expire upstream
	// HTLC we've already fulfilled downstream.
	FulfillSafetyBeforeTimeout uint32

	// FeerateToleranceBp is a basis-point feerate band carried as
	// configuration. The machine does not read it: the invariant engine's
	// FeerateTooDifferent check uses a fixed band (half to double the
	// current feerate) and is applied to a received UpdateFee only, not
	// to CmdUpdateFee.
	FeerateToleranceBp uint32

	// DustExposureToleranceBp mirrors commitment.Params.
	// DustExposureToleranceBp but is kept here too as the value new
	// channels are provisioned with, per DESIGN.md Open Question 3.
	DustExposureToleranceBp uint32

	// BalanceThresholds is the htlc_maximum_msat bucketing table new
	// channels are provisioned with (DESIGN.md Open Question 4).
	BalanceThresholds []btcutil.Amount

	// RevocationTimeoutBlocks, when non-zero, makes CmdSign emit a
	// ScheduleTimer named "RevocationTimeout" (spec.md §5's
	// RevocationTimeout); its value is not otherwise read. No state
	// handles the resulting TimerFired event (Step returns ErrWrongState
	// for it), so the machine does not disconnect when a RevokeAndAck is
	// late.
	RevocationTimeoutBlocks uint32
}
