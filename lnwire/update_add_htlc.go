package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// OnionPacketSize is the size of the onion routing packet carried on every
// UpdateAddHTLC. Its contents are opaque to the channel state machine; onion
// construction and parsing are an external collaborator (see spec.md §1).
const OnionPacketSize = 1366

// UpdateAddHTLC is the message sent by either side to offer a new HTLC to
// their counterparty. It is the wire counterpart to a CMD_ADD_HTLC that
// passed the invariant engine.
type UpdateAddHTLC struct {
	// ChanID is the particular active channel this UpdateAddHTLC is
	// bound to.
	ChanID ChannelID

	// ID is the particular HTLC this UpdateAddHTLC is adding. This value
	// is strictly increasing per direction (spec.md §3 invariant 2).
	ID uint64

	// Amount is the amount, in milli-satoshi, of the HTLC being offered.
	Amount MilliSatoshi

	// PaymentHash is the payment hash that, together with the eventual
	// PaymentPreimage, settles this HTLC.
	PaymentHash [32]byte

	// Expiry is the absolute block height at which this HTLC will
	// expire and become eligible for a timeout claim.
	Expiry uint32

	// OnionBlob is the opaque onion-routing packet. Its interpretation
	// is entirely the concern of the routing/onion collaborator.
	OnionBlob [OnionPacketSize]byte

	// BlindingPoint is an optional ephemeral blinding key, present when
	// this HTLC is part of a blinded-route payment (spec.md §3: "optional
	// blinding key"). A nil value means the field is absent.
	BlindingPoint *btcec.PublicKey
}

// NewUpdateAddHTLC returns a new empty UpdateAddHTLC.
func NewUpdateAddHTLC() *UpdateAddHTLC {
	return &UpdateAddHTLC{}
}

// A compile time check to ensure UpdateAddHTLC implements the lnwire.Message
// interface.
var _ Message = (*UpdateAddHTLC)(nil)

// Decode deserializes a serialized UpdateAddHTLC stored in the passed
// io.Reader observing the specified protocol version.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r,
		&c.ChanID,
		&c.ID,
		&c.Amount,
		c.PaymentHash[:],
		&c.Expiry,
		c.OnionBlob[:],
	); err != nil {
		return err
	}

	var hasBlinding bool
	if err := readElement(r, &hasBlinding); err != nil {
		return err
	}
	if hasBlinding {
		return readElement(r, &c.BlindingPoint)
	}
	return nil
}

// Encode serializes the target UpdateAddHTLC into the passed io.Writer
// observing the protocol version specified.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w,
		c.ChanID,
		c.ID,
		c.Amount,
		c.PaymentHash[:],
		c.Expiry,
		c.OnionBlob[:],
	); err != nil {
		return err
	}

	if c.BlindingPoint == nil {
		return writeElement(w, false)
	}
	if err := writeElement(w, true); err != nil {
		return err
	}
	return writeElement(w, c.BlindingPoint)
}

// MsgType returns the integer uniquely identifying this message type on the
// wire.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) MsgType() MessageType {
	return MsgUpdateAddHTLC
}

// MaxPayloadLength returns the maximum allowed payload size for this message.
//
// This is part of the lnwire.Message interface.
func (c *UpdateAddHTLC) MaxPayloadLength(uint32) uint32 {
	return 65533
}
