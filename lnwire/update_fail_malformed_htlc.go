package lnwire

import "io"

// FailCode specifies the reason an HTLC was malformed upon receipt,
// reported to the upstream peer without requiring the receiver to have
// decrypted the onion.
type FailCode uint16

// UpdateFailMalformedHTLC is sent in place of UpdateFailHTLC when the
// receiving node is unable to parse the onion routing packet it received,
// and thus cannot construct an onion-encrypted failure reason the normal
// way. Instead it reports the SHA-256 of the onion it received along with a
// FailCode so that the sender can determine where in the route decryption
// broke down.
type UpdateFailMalformedHTLC struct {
	// ChanID references the active channel holding the HTLC to cancel.
	ChanID ChannelID

	// ID denotes the HTLC which is to be cancelled.
	ID uint64

	// ShaOnionBlob is the SHA-256 hash of the onion blob received.
	ShaOnionBlob [32]byte

	// FailureCode is the code indicating the precise nature of the
	// failure.
	FailureCode FailCode
}

// A compile time check to ensure UpdateFailMalformedHTLC implements the
// lnwire.Message interface.
var _ Message = (*UpdateFailMalformedHTLC)(nil)

// Decode deserializes a serialized UpdateFailMalformedHTLC from r.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailMalformedHTLC) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		&c.ID,
		c.ShaOnionBlob[:],
		(*uint16)(&c.FailureCode),
	)
}

// Encode serializes the target UpdateFailMalformedHTLC into w.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailMalformedHTLC) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.ID,
		c.ShaOnionBlob[:],
		uint16(c.FailureCode),
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailMalformedHTLC) MsgType() MessageType {
	return MsgUpdateFailMalformedHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailMalformedHTLC) MaxPayloadLength(uint32) uint32 {
	// 32 + 8 + 32 + 2
	return 74
}
