package invariant

import (
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// Input bundles everything a Check needs: the channel's static config, its
// current commitment state, and the candidate change being evaluated.
// Passed by value since checks never mutate it.
type Input struct {
	Params commitment.Params

	// LocalSpec/RemoteSpec are the commitment specs that would result
	// from applying Candidate, from each chain's point of view. A check
	// evaluates both, since spec.md §4.2 requires every invariant hold
	// "on BOTH commitments simultaneously".
	LocalSpec  commitment.Spec
	RemoteSpec commitment.Spec

	// Candidate is the Add being evaluated. Only populated when the
	// check is running against an Add (not every check inspects it).
	Candidate commitment.Update

	// IsOutgoing is true when Candidate is offered by the local party
	// (an outgoing CMD_ADD_HTLC), false when it was received from the
	// remote party.
	IsOutgoing bool

	CurrentBlockHeight uint32

	// ShuttingDown is true once Shutdown has been sent or received.
	ShuttingDown bool

	// IsFeeUpdate/ProposedFeePerKw are populated when the candidate
	// change is a fee proposal rather than an Add.
	IsFeeUpdate  bool
	ProposedFeePerKw btcutil.Amount
}

// Check is one named admission-control rule. Each returns nil when the
// candidate passes, or one of the typed errors in errors.go.
type Check func(in Input) error

// Ordered is the full, ordered table spec.md §4.2 names, run in this exact
// order with short-circuit on first failure — grounded on the teacher's
// validateCommitmentSanity, which likewise runs its checks as an ordered
// sequence of early returns rather than collecting every violation.
var Ordered = []Check{
	checkExpiryTooSmall,
	checkExpiryTooBig,
	checkHtlcValueTooSmall,
	checkTooManyAcceptedHtlcs,
	checkHtlcValueTooHighInFlight,
	checkReserveAndFees,
	checkDustExposure,
	checkFeerate,
	checkClosingInProgress,
}

// Run executes every check in Ordered, stopping at (and returning) the
// first failure.
func Run(in Input) error {
	for _, check := range Ordered {
		if err := check(in); err != nil {
			return err
		}
	}
	return nil
}

func checkExpiryTooSmall(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}
	expiry := in.Candidate.HTLC.CltvExpiry
	if expiry <= in.CurrentBlockHeight+in.Params.MinFinalExpiryDelta {
		return ExpiryTooSmall{
			ChanID:              in.Params.ChanID,
			Expiry:              expiry,
			CurrentHeight:       in.CurrentBlockHeight,
			MinFinalExpiryDelta: in.Params.MinFinalExpiryDelta,
		}
	}
	return nil
}

func checkExpiryTooBig(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}
	expiry := in.Candidate.HTLC.CltvExpiry
	if expiry-in.CurrentBlockHeight > in.Params.MaxExpiryDelta {
		return ExpiryTooBig{
			ChanID:         in.Params.ChanID,
			Expiry:         expiry,
			CurrentHeight:  in.CurrentBlockHeight,
			MaxExpiryDelta: in.Params.MaxExpiryDelta,
		}
	}
	return nil
}

func checkHtlcValueTooSmall(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}
	minHtlc := in.Params.Local.HtlcMinimum
	if in.Params.Remote.HtlcMinimum < minHtlc {
		minHtlc = in.Params.Remote.HtlcMinimum
	}
	if in.Candidate.HTLC.Amount < minHtlc {
		return HtlcValueTooSmall{
			ChanID:    in.Params.ChanID,
			Amount:    in.Candidate.HTLC.Amount,
			MinAmount: minHtlc,
		}
	}
	return nil
}

func checkTooManyAcceptedHtlcs(in Input) error {
	if in.IsFeeUpdate || in.IsOutgoing {
		// Only the *receiver's* live-HTLC count is bounded (spec.md
		// §4.2): when we're the offerer, the counterparty enforces
		// this on themselves.
		return nil
	}

	max := in.Params.Local.MaxAcceptedHtlcs
	count := len(in.LocalSpec.Htlcs)
	if count > int(max) {
		return TooManyAcceptedHtlcs{
			ChanID:   in.Params.ChanID,
			Count:    count,
			MaxHtlcs: max,
		}
	}
	return nil
}

func checkHtlcValueTooHighInFlight(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}

	checkSide := func(spec commitment.Spec, dir htlc.Direction, max lnwire.MilliSatoshi) error {
		var total lnwire.MilliSatoshi
		for _, h := range spec.Htlcs {
			if h.Direction == dir {
				total += h.Amount
			}
		}
		if total > max {
			return HtlcValueTooHighInFlight{
				ChanID:      in.Params.ChanID,
				Amount:      total,
				MaxInFlight: max,
			}
		}
		return nil
	}

	if err := checkSide(in.LocalSpec, htlc.Incoming, in.Params.Local.MaxHtlcValueInFlight); err != nil {
		return err
	}
	return checkSide(in.RemoteSpec, htlc.Outgoing, in.Params.Remote.MaxHtlcValueInFlight)
}

func checkReserveAndFees(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}

	checkSide := func(
		spec commitment.Spec, funderIsLocal bool, reserve btcutil.Amount,
	) error {
		funderBalance := spec.ToLocal
		if !funderIsLocal {
			funderBalance = spec.ToRemote
		}

		fees := commitment.Fee(
			in.Params.CommitmentFormat, spec.FeePerKw,
			len(spec.Htlcs), true,
		)
		need := lnwire.NewMSatFromSatoshis(reserve + fees)

		if funderBalance >= need {
			return nil
		}
		missing := (need - funderBalance).ToSatoshis()

		// Only the funder itself is ever the one rejected here: if
		// WE are the funder, any candidate that would dip us below
		// reserve+fees is InsufficientFunds regardless of who
		// offered the HTLC (fee overhead applies either way). If the
		// *counterparty* is the funder and it's their balance
		// dipping, we surface RemoteCannotAffordFeesForNewHtlc only
		// when THEY are also the one who offered this HTLC (spec.md
		// §4.2: "the funder must reject it" — the funder rejects its
		// own sends, it never refuses an incoming HTLC on this
		// ground, since "the counterparty sends an HTLC dipping our
		// reserve, we MAY accept").
		if funderIsLocal {
			return InsufficientFunds{
				ChanID: in.Params.ChanID, Missing: missing,
				Reserve: reserve, Fees: fees,
			}
		}
		if in.IsOutgoing {
			return nil
		}
		return RemoteCannotAffordFeesForNewHtlc{
			ChanID: in.Params.ChanID, Missing: missing,
			Reserve: reserve, Fees: fees,
		}
	}

	if err := checkSide(in.LocalSpec, in.Params.IsInitiator, in.Params.Local.ChanReserve); err != nil {
		return err
	}
	return checkSide(in.RemoteSpec, in.Params.IsInitiator, in.Params.Remote.ChanReserve)
}

func checkDustExposure(in Input) error {
	localExposure := commitment.DustExposure(
		in.LocalSpec, commitment.Local, in.Params.Local.DustLimit,
		in.LocalSpec.FeePerKw, in.Params.CommitmentFormat,
		in.Params.DustExposureToleranceBp,
	)
	if localExposure > in.Params.Local.MaxDustExposure {
		return LocalDustHtlcExposureTooHigh{
			ChanID:         in.Params.ChanID,
			MaxExposure:    in.Params.Local.MaxDustExposure,
			ActualExposure: localExposure,
		}
	}

	remoteExposure := commitment.DustExposure(
		in.RemoteSpec, commitment.Remote, in.Params.Remote.DustLimit,
		in.RemoteSpec.FeePerKw, in.Params.CommitmentFormat,
		in.Params.DustExposureToleranceBp,
	)
	if remoteExposure > in.Params.Remote.MaxDustExposure {
		return RemoteDustHtlcExposureTooHigh{
			ChanID:         in.Params.ChanID,
			MaxExposure:    in.Params.Remote.MaxDustExposure,
			ActualExposure: remoteExposure,
		}
	}
	return nil
}

func checkFeerate(in Input) error {
	if !in.IsFeeUpdate {
		return nil
	}
	current := in.LocalSpec.FeePerKw

	// Tolerated band: within 2x in either direction, matching the
	// widely-used default BOLT #2 tolerance. The band is fixed here;
	// Params carries no feerate tolerance.
	if in.ProposedFeePerKw > current*2 || in.ProposedFeePerKw*2 < current {
		return FeerateTooDifferent{
			ChanID:   in.Params.ChanID,
			Proposed: in.ProposedFeePerKw,
			Current:  current,
		}
	}
	return nil
}

func checkClosingInProgress(in Input) error {
	if in.IsFeeUpdate {
		return nil
	}
	if in.ShuttingDown {
		return NoMoreHtlcsClosingInProgress{ChanID: in.Params.ChanID}
	}
	return nil
}
