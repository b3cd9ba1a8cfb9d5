package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ChannelReestablish is sent by both sides upon reconnection, before any
// other channel traffic, to resynchronize commitment state across the gap
// (spec.md §4.3 Reestablishment). Each side reports its next expected
// commitment/revocation numbers; the peer replays whatever the numbers show
// was not received.
type ChannelReestablish struct {
	// ChanID references the channel being resynchronized.
	ChanID ChannelID

	// NextLocalCommitHeight is the commitment height of the next
	// CommitSig the sender expects to receive.
	NextLocalCommitHeight uint64

	// RemoteCommitTailHeight is the commitment height of the last
	// RevokeAndAck the sender sent (i.e. the height it believes its
	// counterparty's revoked commitment chain tail to be at).
	RemoteCommitTailHeight uint64

	// LastRemoteCommitSecret is the per-commitment secret that was used
	// for the sender's prior local commitment, used by the receiver as
	// a data-loss-protection check: if the receiver cannot reproduce the
	// expected point from this secret, something is badly wrong.
	LastRemoteCommitSecret [32]byte

	// LocalUnrevokedCommitPoint is the per-commitment point for the
	// sender's current, not-yet-revoked commitment. Present so the
	// counterparty can detect that it has fallen behind ("data loss"
	// branch of spec.md §4.3).
	LocalUnrevokedCommitPoint *btcec.PublicKey
}

// A compile time check to ensure ChannelReestablish implements the
// lnwire.Message interface.
var _ Message = (*ChannelReestablish)(nil)

// Decode deserializes a serialized ChannelReestablish from r.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReestablish) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r,
		&c.ChanID,
		&c.NextLocalCommitHeight,
		&c.RemoteCommitTailHeight,
	); err != nil {
		return err
	}

	// The data-loss-protection fields are optional (absent when
	// option_data_loss_protect wasn't negotiated); a short read here is
	// not an error.
	if err := readElement(r, c.LastRemoteCommitSecret[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		return err
	}
	return readElement(r, &c.LocalUnrevokedCommitPoint)
}

// Encode serializes the target ChannelReestablish into w.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReestablish) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w,
		c.ChanID,
		c.NextLocalCommitHeight,
		c.RemoteCommitTailHeight,
	); err != nil {
		return err
	}

	if c.LocalUnrevokedCommitPoint == nil {
		return nil
	}

	if err := writeElement(w, c.LastRemoteCommitSecret[:]); err != nil {
		return err
	}
	return writeElement(w, c.LocalUnrevokedCommitPoint)
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReestablish) MsgType() MessageType {
	return MsgChannelReestablish
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *ChannelReestablish) MaxPayloadLength(uint32) uint32 {
	return 65533
}
