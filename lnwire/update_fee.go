package lnwire

import "io"

// UpdateFee is sent by the channel funder, and only the funder (spec.md
// §4.4: "only the funder may send"), to propose a new feerate for the
// commitment transaction. The receiver applies its feerate-tolerance and
// dust-exposure checks before accepting the implied change.
type UpdateFee struct {
	// ChanID is the channel this fee update applies to.
	ChanID ChannelID

	// FeePerKw is the new commitment feerate, denominated in
	// satoshis-per-kiloweight.
	FeePerKw uint32
}

// A compile time check to ensure UpdateFee implements the lnwire.Message
// interface.
var _ Message = (*UpdateFee)(nil)

// Decode deserializes a serialized UpdateFee from r.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFee) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &c.ChanID, &c.FeePerKw)
}

// Encode serializes the target UpdateFee into w.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFee) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, c.ChanID, c.FeePerKw)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFee) MsgType() MessageType {
	return MsgUpdateFee
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFee) MaxPayloadLength(uint32) uint32 {
	return 36
}
