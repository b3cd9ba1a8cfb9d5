package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/lnchannel/lnchannel/lnwire"
)

// htlcSuccessResolver resolves an HTLC we accepted and have the preimage
// for. Symmetric to htlcTimeoutResolver: on our own commitment it waits for
// the signed second-level success transaction to confirm; on the
// counterparty's it waits for a confirmed direct preimage spend.
//
// Grounded on the teacher's htlcSuccessResolver, narrowed the same way
// htlcTimeoutResolver was.
type htlcSuccessResolver struct {
	htlcResolution IncomingHtlcResolution

	outputIncubating bool
	resolved         bool
	broadcastHeight  uint32
	htlcAmt          lnwire.MilliSatoshi

	ResolverKit
}

// NewHtlcSuccessResolver constructs a resolver for an incoming HTLC we can
// claim with its preimage.
func NewHtlcSuccessResolver(res IncomingHtlcResolution, broadcastHeight uint32,
	kit ResolverKit) ContractResolver {

	return &htlcSuccessResolver{
		htlcResolution:  res,
		broadcastHeight: broadcastHeight,
		htlcAmt:         res.HTLC.Amount,
		ResolverKit:     kit,
	}
}

func (h *htlcSuccessResolver) ResolverKey() []byte {
	return []byte(h.htlcResolution.ClaimOutpoint.String())
}

// Resolve sweeps the HTLC output with the preimage, then waits for the
// claiming transaction (direct, or our own second-level success tx) to
// confirm before notifying upstream that the payment was claimed.
func (h *htlcSuccessResolver) Resolve() (ContractResolver, error) {
	if h.resolved {
		return nil, nil
	}

	if !h.outputIncubating {
		kind := ClaimDirectPreimage
		if h.htlcResolution.SignedSuccessTx != nil {
			kind = ClaimSecondLevelSuccess
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

	confirmTxid := h.htlcResolution.ClaimOutpoint.Hash
	sweepScript := h.htlcResolution.SweepPkScript
	if h.htlcResolution.SignedSuccessTx != nil {
		confirmTxid = h.htlcResolution.SignedSuccessTx.TxHash()
		sweepScript = h.htlcResolution.SignedSuccessTx.TxOut[0].PkScript
	}

	confNtfn, err := h.Notifier.RegisterConfirmationsNtfn(
		&confirmTxid, sweepScript, 1, h.broadcastHeight,
	)
	if err != nil {
		return nil, err
	}

	log.Infof("%T(%v): waiting for preimage claim to confirm", h,
		h.htlcResolution.ClaimOutpoint)

	select {
	case _, ok := <-confNtfn.Confirmed:
		if !ok {
			return nil, errResolverQuitting
		}
	case <-h.Quit:
		return nil, errResolverQuitting
	}

	preimage := h.htlcResolution.Preimage
	if err := h.DeliverResolutionMsg(ResolutionMsg{
		ShortChanID: h.ShortChanID,
		HtlcIndex:   h.htlcResolution.HTLC.ID,
		Preimage:    &preimage,
	}); err != nil {
		return nil, err
	}

	h.resolved = true
	return nil, h.Checkpoint(h)
}

func (h *htlcSuccessResolver) Stop() {
	close(h.Quit)
}

func (h *htlcSuccessResolver) IsResolved() bool {
	return h.resolved
}

func (h *htlcSuccessResolver) Encode(w io.Writer) error {
	if err := encodeIncomingResolution(w, &h.htlcResolution); err != nil {
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

func (h *htlcSuccessResolver) Decode(r io.Reader) error {
	if err := decodeIncomingResolution(r, &h.htlcResolution); err != nil {
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

func (h *htlcSuccessResolver) AttachResolverKit(r ResolverKit) {
	h.ResolverKit = r
}

var _ ContractResolver = (*htlcSuccessResolver)(nil)
