package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"

	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
)

// OutgoingHtlcResolution carries everything an htlcTimeoutResolver needs to
// claim an HTLC we offered, once it's timed out unclaimed. If
// SignedTimeoutTx is set, ClaimOutpoint sits on our own commitment and must
// be claimed via that pre-signed second-level transaction; otherwise it
// sits on the counterparty's commitment and is claimed directly via the
// CLTV timeout clause.
type OutgoingHtlcResolution struct {
	ClaimOutpoint   wire.OutPoint
	SweepPkScript   []byte
	SweepValue      int64
	SignedTimeoutTx *wire.MsgTx
	HTLC            htlc.HTLC
}

// htlcTimeoutResolver is a ContractResolver that's capable of resolving an
// outgoing HTLC, on either our own commitment or the counterparty's. An
// output on our own commitment is fully resolved once the second-level
// transaction has confirmed; one on the counterparty's commitment is
// resolved once we detect a confirmed spend via the timeout clause.
//
// Grounded on the teacher's htlcTimeoutResolver; IncubateOutputs (the utxo
// nursery) is replaced by a direct call to the Sweeper collaborator.
type htlcTimeoutResolver struct {
	htlcResolution OutgoingHtlcResolution

	outputIncubating bool
	resolved         bool
	broadcastHeight  uint32
	htlcAmt          lnwire.MilliSatoshi

	ResolverKit
}

// NewHtlcTimeoutResolver constructs a resolver for an outgoing HTLC that
// has timed out on-chain.
func NewHtlcTimeoutResolver(res OutgoingHtlcResolution, broadcastHeight uint32,
	kit ResolverKit) ContractResolver {

	return &htlcTimeoutResolver{
		htlcResolution:  res,
		broadcastHeight: broadcastHeight,
		htlcAmt:         res.HTLC.Amount,
		ResolverKit:     kit,
	}
}

// ResolverKey returns a globally unique identifier for this resolver within
// the chain the original contract resides on.
func (h *htlcTimeoutResolver) ResolverKey() []byte {
	var op wire.OutPoint
	if h.htlcResolution.SignedTimeoutTx != nil {
		op = h.htlcResolution.SignedTimeoutTx.TxIn[0].PreviousOutPoint
	} else {
		op = h.htlcResolution.ClaimOutpoint
	}
	return []byte(op.String())
}

// Resolve kicks off resolution of an outgoing HTLC output. If it's our
// commitment, it isn't resolved until the second-level HTLC transaction
// confirms; if it's the counterparty's, it isn't resolved until we see a
// confirmed direct sweep via the timeout clause.
func (h *htlcTimeoutResolver) Resolve() (ContractResolver, error) {
	if h.resolved {
		return nil, nil
	}

	if !h.outputIncubating {
		log.Tracef("%T(%v): sweeping htlc output", h,
			h.htlcResolution.ClaimOutpoint)

		kind := ClaimDirectCLTV
		if h.htlcResolution.SignedTimeoutTx != nil {
			kind = ClaimSecondLevelTimeout
		}

		if _, err := h.Sweeper.SweepInput(
			h.htlcResolution.ClaimOutpoint, kind,
			h.htlcResolution.SweepPkScript, h.htlcResolution.SweepValue,
		); err != nil {
			return nil, err
		}

		h.outputIncubating = true
		if err := h.Checkpoint(h); err != nil {
			log.Errorf("unable to checkpoint: %v", err)
			return nil, err
		}
	}

	waitForOutputResolution := func() error {
		spendNtfn, err := h.Notifier.RegisterSpendNtfn(
			&h.htlcResolution.ClaimOutpoint,
			h.htlcResolution.SweepPkScript, h.broadcastHeight,
		)
		if err != nil {
			return err
		}

		select {
		case _, ok := <-spendNtfn.Spend:
			if !ok {
				return errResolverQuitting
			}
		case <-h.Quit:
			return errResolverQuitting
		}
		return nil
	}

	if h.htlcResolution.SignedTimeoutTx == nil {
		log.Infof("%T(%v): waiting for timeout-clause sweep to confirm",
			h, h.htlcResolution.ClaimOutpoint)
		if err := waitForOutputResolution(); err != nil {
			return nil, err
		}
	} else {
		secondLevelTXID := h.htlcResolution.SignedTimeoutTx.TxHash()
		sweepScript := h.htlcResolution.SignedTimeoutTx.TxOut[0].PkScript
		confNtfn, err := h.Notifier.RegisterConfirmationsNtfn(
			&secondLevelTXID, sweepScript, 1, h.broadcastHeight,
		)
		if err != nil {
			return nil, err
		}

		log.Infof("%T(%v): waiting for second-level tx %v to confirm",
			h, h.htlcResolution.ClaimOutpoint, secondLevelTXID)

		select {
		case _, ok := <-confNtfn.Confirmed:
			if !ok {
				return nil, errResolverQuitting
			}
		case <-h.Quit:
			return nil, errResolverQuitting
		}
	}

	failed := true
	if err := h.DeliverResolutionMsg(ResolutionMsg{
		ShortChanID: h.ShortChanID,
		HtlcIndex:   h.htlcResolution.HTLC.ID,
		Failed:      failed,
	}); err != nil {
		return nil, err
	}

	if h.htlcResolution.SignedTimeoutTx != nil {
		log.Infof("%T(%v): waiting for CSV-delayed second-level "+
			"output to be swept", h, h.htlcResolution.ClaimOutpoint)
		if err := waitForOutputResolution(); err != nil {
			return nil, err
		}
	}

	h.resolved = true
	return nil, h.Checkpoint(h)
}

// Stop signals Resolve to abandon its wait and return.
func (h *htlcTimeoutResolver) Stop() {
	close(h.Quit)
}

// IsResolved reports whether the output has been fully resolved.
func (h *htlcTimeoutResolver) IsResolved() bool {
	return h.resolved
}

// Encode writes an encoded version of the resolver to w.
func (h *htlcTimeoutResolver) Encode(w io.Writer) error {
	if err := encodeOutgoingResolution(w, &h.htlcResolution); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.outputIncubating); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.resolved); err != nil {
		return err
	}
	return binary.Write(w, endian, h.broadcastHeight)
}

// Decode reconstructs a resolver from the byte stream w previously wrote.
func (h *htlcTimeoutResolver) Decode(r io.Reader) error {
	if err := decodeOutgoingResolution(r, &h.htlcResolution); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &h.outputIncubating); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &h.resolved); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &h.broadcastHeight); err != nil {
		return err
	}
	h.htlcAmt = h.htlcResolution.HTLC.Amount
	return nil
}

// AttachResolverKit re-attaches the live collaborators after Decode.
func (h *htlcTimeoutResolver) AttachResolverKit(r ResolverKit) {
	h.ResolverKit = r
}

var _ ContractResolver = (*htlcTimeoutResolver)(nil)
