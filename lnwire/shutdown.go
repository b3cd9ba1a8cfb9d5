package lnwire

import "io"

// Shutdown is sent by either side to initiate a graceful close of the
// channel (spec.md §4.4 NORMAL "CMD_CLOSE"). Upon sending or receiving
// Shutdown, no new HTLCs may be offered in either direction until the
// channel has fully closed.
type Shutdown struct {
	// ChanID is the channel being shut down.
	ChanID ChannelID

	// Address is the script to which the sender's settled channel
	// balance should be paid out on the closing transaction.
	Address []byte
}

// A compile time check to ensure Shutdown implements the lnwire.Message
// interface.
var _ Message = (*Shutdown)(nil)

// Decode deserializes a serialized Shutdown from r.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) Decode(r io.Reader, pver uint32) error {
	if err := readElement(r, &c.ChanID); err != nil {
		return err
	}
	return readElement(r, &c.Address)
}

// Encode serializes the target Shutdown into w.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) Encode(w io.Writer, pver uint32) error {
	if err := writeElement(w, c.ChanID); err != nil {
		return err
	}
	return writeVarBytes(w, c.Address)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) MsgType() MessageType {
	return MsgShutdown
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *Shutdown) MaxPayloadLength(uint32) uint32 {
	return 530
}
