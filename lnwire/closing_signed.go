package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
)

// ClosingSigned is exchanged during the NEGOTIATING phase (spec.md §4.4):
// the funder proposes a fee within its computed fee range and a signature
// over the resulting closing transaction; the fundee either accepts by
// replying with the identical fee, or counters with its own
// ClosingSigned until the two sides converge.
type ClosingSigned struct {
	// ChanID is the channel being cooperatively closed.
	ChanID ChannelID

	// FeeSatoshis is the proposed total fee, in satoshis, that the
	// sender is proposing for the closing transaction.
	FeeSatoshis btcutil.Amount

	// Signature is the signature for the proposed closing transaction.
	Signature *ecdsa.Signature
}

// A compile time check to ensure ClosingSigned implements the
// lnwire.Message interface.
var _ Message = (*ClosingSigned)(nil)

// Decode deserializes a serialized ClosingSigned from r.
//
// This is part of the lnwire.Message interface.
func (c *ClosingSigned) Decode(r io.Reader, pver uint32) error {
	var fee uint64
	if err := readElements(r, &c.ChanID, &fee, &c.Signature); err != nil {
		return err
	}
	c.FeeSatoshis = btcutil.Amount(fee)
	return nil
}

// Encode serializes the target ClosingSigned into w.
//
// This is part of the lnwire.Message interface.
func (c *ClosingSigned) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		uint64(c.FeeSatoshis),
		c.Signature,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *ClosingSigned) MsgType() MessageType {
	return MsgClosingSigned
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *ClosingSigned) MaxPayloadLength(uint32) uint32 {
	// 32 + 8 + 64
	return 104
}
