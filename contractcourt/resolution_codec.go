package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"

	"github.com/lnchannel/lnchannel/htlc"
)

// encodeHtlc writes the handful of HTLC fields a resolver needs to
// rehydrate its identity after a restart. The onion blob and blinding
// point are routing-time-only data with no bearing on post-broadcast
// resolution, so neither is persisted here.
func encodeHtlc(w io.Writer, h *htlc.HTLC) error {
	if err := binary.Write(w, endian, h.ID); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.Direction); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.Amount); err != nil {
		return err
	}
	if _, err := w.Write(h.PaymentHash[:]); err != nil {
		return err
	}
	return binary.Write(w, endian, h.CltvExpiry)
}

func decodeHtlc(r io.Reader, h *htlc.HTLC) error {
	if err := binary.Read(r, endian, &h.ID); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &h.Direction); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &h.Amount); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.PaymentHash[:]); err != nil {
		return err
	}
	return binary.Read(r, endian, &h.CltvExpiry)
}

func encodeOutgoingResolution(w io.Writer, res *OutgoingHtlcResolution) error {
	if err := writeOutPoint(w, &res.ClaimOutpoint); err != nil {
		return err
	}
	if err := writeVarBytes(w, res.SweepPkScript); err != nil {
		return err
	}
	if err := binary.Write(w, endian, res.SweepValue); err != nil {
		return err
	}

	hasSecondLevel := res.SignedTimeoutTx != nil
	if err := binary.Write(w, endian, hasSecondLevel); err != nil {
		return err
	}
	if hasSecondLevel {
		if err := res.SignedTimeoutTx.Serialize(w); err != nil {
			return err
		}
	}

	return encodeHtlc(w, &res.HTLC)
}

func decodeOutgoingResolution(r io.Reader, res *OutgoingHtlcResolution) error {
	if err := readOutPoint(r, &res.ClaimOutpoint); err != nil {
		return err
	}
	pkScript, err := readVarBytes(r, 1024)
	if err != nil {
		return err
	}
	res.SweepPkScript = pkScript

	if err := binary.Read(r, endian, &res.SweepValue); err != nil {
		return err
	}

	var hasSecondLevel bool
	if err := binary.Read(r, endian, &hasSecondLevel); err != nil {
		return err
	}
	if hasSecondLevel {
		tx := wire.NewMsgTx(2)
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		res.SignedTimeoutTx = tx
	}

	return decodeHtlc(r, &res.HTLC)
}

// IncomingHtlcResolution mirrors OutgoingHtlcResolution for an HTLC we
// accepted: claimed via preimage, either directly on the counterparty's
// commitment or through our own signed second-level success transaction.
type IncomingHtlcResolution struct {
	ClaimOutpoint   wire.OutPoint
	SweepPkScript   []byte
	SweepValue      int64
	SignedSuccessTx *wire.MsgTx
	Preimage        [32]byte
	HTLC            htlc.HTLC
}

func encodeIncomingResolution(w io.Writer, res *IncomingHtlcResolution) error {
	if err := writeOutPoint(w, &res.ClaimOutpoint); err != nil {
		return err
	}
	if err := writeVarBytes(w, res.SweepPkScript); err != nil {
		return err
	}
	if err := binary.Write(w, endian, res.SweepValue); err != nil {
		return err
	}

	hasSecondLevel := res.SignedSuccessTx != nil
	if err := binary.Write(w, endian, hasSecondLevel); err != nil {
		return err
	}
	if hasSecondLevel {
		if err := res.SignedSuccessTx.Serialize(w); err != nil {
			return err
		}
	}

	if _, err := w.Write(res.Preimage[:]); err != nil {
		return err
	}

	return encodeHtlc(w, &res.HTLC)
}

func decodeIncomingResolution(r io.Reader, res *IncomingHtlcResolution) error {
	if err := readOutPoint(r, &res.ClaimOutpoint); err != nil {
		return err
	}
	pkScript, err := readVarBytes(r, 1024)
	if err != nil {
		return err
	}
	res.SweepPkScript = pkScript

	if err := binary.Read(r, endian, &res.SweepValue); err != nil {
		return err
	}

	var hasSecondLevel bool
	if err := binary.Read(r, endian, &hasSecondLevel); err != nil {
		return err
	}
	if hasSecondLevel {
		tx := wire.NewMsgTx(2)
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		res.SignedSuccessTx = tx
	}

	if _, err := io.ReadFull(r, res.Preimage[:]); err != nil {
		return err
	}

	return decodeHtlc(r, &res.HTLC)
}
