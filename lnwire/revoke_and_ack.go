package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// RevokeAndAck is sent in response to a CommitSig message, and concludes one
// half of a state transition round trip (spec.md §4.3). It reveals the
// per-commitment secret for the commitment it supersedes, permanently
// disabling that prior commitment as a unilateral close option, and
// advertises the per-commitment point that will secure the next one.
type RevokeAndAck struct {
	// ChanID uniquely identifies the channel this RevokeAndAck applies
	// to.
	ChanID ChannelID

	// Revocation is the pre-image to the per-commitment secret that was
	// used to derive the keys for the prior commitment transaction.
	Revocation [32]byte

	// NextRevocationKey is the next per-commitment point to be used for
	// the revocation clause of the next commitment transaction this
	// party broadcasts.
	NextRevocationKey *btcec.PublicKey
}

// A compile time check to ensure RevokeAndAck implements the lnwire.Message
// interface.
var _ Message = (*RevokeAndAck)(nil)

// Decode deserializes a serialized RevokeAndAck from r.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		c.Revocation[:],
		&c.NextRevocationKey,
	)
}

// Encode serializes the target RevokeAndAck into w.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.Revocation[:],
		c.NextRevocationKey,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) MsgType() MessageType {
	return MsgRevokeAndAck
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *RevokeAndAck) MaxPayloadLength(uint32) uint32 {
	// 32 + 32 + 33
	return 97
}
