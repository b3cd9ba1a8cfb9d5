package lnwire

import "io"

// Error is sent by either side to indicate a channel-fatal protocol
// violation was detected (spec.md §7 Tier 2). Upon sending or receiving
// Error, both sides should consider the channel dead and publish their
// latest valid commitment transaction.
type Error struct {
	// ChanID references the channel this error applies to. The all-zero
	// ChannelID is reserved for connection-wide (not channel-specific)
	// errors.
	ChanID ChannelID

	// Data is the contents of the error. The ASCII/UTF-8 string
	// representation is used for diagnostics; some peer implementations
	// are known to send "internal error" strings that should be
	// downgraded to a warning rather than treated as fatal (spec.md §7
	// Tier 3).
	Data []byte
}

// A compile time check to ensure Error implements the lnwire.Message
// interface.
var _ Message = (*Error)(nil)

// Decode deserializes a serialized Error from r.
//
// This is part of the lnwire.Message interface.
func (c *Error) Decode(r io.Reader, pver uint32) error {
	if err := readElement(r, &c.ChanID); err != nil {
		return err
	}
	return readElement(r, &c.Data)
}

// Encode serializes the target Error into w.
//
// This is part of the lnwire.Message interface.
func (c *Error) Encode(w io.Writer, pver uint32) error {
	if err := writeElement(w, c.ChanID); err != nil {
		return err
	}
	return writeVarBytes(w, c.Data)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Error) MsgType() MessageType {
	return MsgError
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *Error) MaxPayloadLength(uint32) uint32 {
	return 65533
}

// Warning is the non-fatal counterpart to Error (spec.md §7): sent for
// conditions such as an invalid final script on Shutdown, without tearing
// down the channel.
type Warning struct {
	// ChanID references the channel this warning applies to.
	ChanID ChannelID

	// Data is the human-readable contents of the warning.
	Data []byte
}

// A compile time check to ensure Warning implements the lnwire.Message
// interface.
var _ Message = (*Warning)(nil)

// Decode deserializes a serialized Warning from r.
//
// This is part of the lnwire.Message interface.
func (c *Warning) Decode(r io.Reader, pver uint32) error {
	if err := readElement(r, &c.ChanID); err != nil {
		return err
	}
	return readElement(r, &c.Data)
}

// Encode serializes the target Warning into w.
//
// This is part of the lnwire.Message interface.
func (c *Warning) Encode(w io.Writer, pver uint32) error {
	if err := writeElement(w, c.ChanID); err != nil {
		return err
	}
	return writeVarBytes(w, c.Data)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Warning) MsgType() MessageType {
	return MsgWarning
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *Warning) MaxPayloadLength(uint32) uint32 {
	return 65533
}
