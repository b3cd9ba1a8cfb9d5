package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// AnnounceSignatures is accepted by the channel FSM while in NORMAL (spec.md
// §4.4) but is otherwise entirely the concern of the gossip/announcement
// collaborator (spec.md §1): the channel simply exchanges its half of the
// signature pair required to build a ChannelAnnouncement, and otherwise does
// not interpret this message.
type AnnounceSignatures struct {
	// ChanID is the short-lived channel ID used to cross-reference this
	// signature exchange with the underlying channel before it has
	// accumulated enough confirmations for a ShortChannelID.
	ChanID ChannelID

	// NodeSignature is the node's signature over the to-be-built
	// ChannelAnnouncement.
	NodeSignature *ecdsa.Signature

	// BitcoinSignature is the funding key's signature over the
	// to-be-built ChannelAnnouncement.
	BitcoinSignature *ecdsa.Signature
}

// A compile time check to ensure AnnounceSignatures implements the
// lnwire.Message interface.
var _ Message = (*AnnounceSignatures)(nil)

// Decode deserializes a serialized AnnounceSignatures from r.
//
// This is part of the lnwire.Message interface.
func (c *AnnounceSignatures) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.ChanID,
		&c.NodeSignature,
		&c.BitcoinSignature,
	)
}

// Encode serializes the target AnnounceSignatures into w.
//
// This is part of the lnwire.Message interface.
func (c *AnnounceSignatures) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.ChanID,
		c.NodeSignature,
		c.BitcoinSignature,
	)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *AnnounceSignatures) MsgType() MessageType {
	return MsgAnnounceSignatures
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *AnnounceSignatures) MaxPayloadLength(uint32) uint32 {
	// 32 + 64 + 64
	return 160
}
