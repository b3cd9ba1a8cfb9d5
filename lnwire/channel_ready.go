package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ChannelReady is sent by both parties once they've each observed the
// funding transaction reach the required confirmation depth. It is the last
// message exchanged before a channel may transition into NORMAL (spec.md
// §1 treats funding/reaching NORMAL as an external collaborator; this
// message is the handoff point between that collaborator and this state
// machine's §4.4 NORMAL phase).
type ChannelReady struct {
	// ChanID uniquely identifies the channel being signalled ready.
	ChanID ChannelID

	// NextPerCommitmentPoint is the per-commitment point to be used for
	// the sender's first new commitment after the channel opens.
	NextPerCommitmentPoint *btcec.PublicKey
}

// A compile time check to ensure ChannelReady implements the lnwire.Message
// interface.
var _ Message = (*ChannelReady)(nil)

// Decode deserializes a serialized ChannelReady from r.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReady) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &c.ChanID, &c.NextPerCommitmentPoint)
}

// Encode serializes the target ChannelReady into w.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReady) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, c.ChanID, c.NextPerCommitmentPoint)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReady) MsgType() MessageType {
	return MsgChannelReady
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReady) MaxPayloadLength(uint32) uint32 {
	// 32 + 33
	return 65
}
