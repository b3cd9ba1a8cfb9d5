package lnwire

import "io"

// UpdateFailHTLC is sent by Alice to Bob when she wishes to cancel a
// previously offered HTLC referenced by ID within a specific channel. The
// Reason is an opaque, onion-encrypted failure message; its contents are the
// concern of the routing/onion collaborator, not this state machine.
type UpdateFailHTLC struct {
	// ChanID references the active channel holding the HTLC to cancel.
	ChanID ChannelID

	// ID denotes the HTLC which is to be cancelled.
	ID uint64

	// Reason is the encrypted failure reason.
	Reason []byte
}

// A compile time check to ensure UpdateFailHTLC implements the lnwire.Message
// interface.
var _ Message = (*UpdateFailHTLC)(nil)

// Decode deserializes a serialized UpdateFailHTLC from r.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r, &c.ChanID, &c.ID); err != nil {
		return err
	}
	return readElement(r, &c.Reason)
}

// Encode serializes the target UpdateFailHTLC into w.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w, c.ChanID, c.ID); err != nil {
		return err
	}
	return writeVarBytes(w, c.Reason)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) MsgType() MessageType {
	return MsgUpdateFailHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for this message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateFailHTLC) MaxPayloadLength(uint32) uint32 {
	return 65533
}
