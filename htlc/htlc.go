// Package htlc defines the HTLC identity primitives shared by the
// commitment model and the invariant engine. It is deliberately a leaf
// package (no imports of commitment/invariant) so both can depend on it
// without a cycle, following the teacher's own layering of PaymentDescriptor
// out of lnwallet/channel.go.
package htlc

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnchannel/lnchannel/lnwire"
)

// Direction records which side of the channel offered a given HTLC.
type Direction uint8

const (
	// Outgoing means the local party offered this HTLC to the remote
	// party.
	Outgoing Direction = iota

	// Incoming means the remote party offered this HTLC to the local
	// party.
	Incoming
)

// String returns a human readable name for the direction.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return "unknown"
	}
}

// PaymentHash is the sha256 of the preimage that settles an HTLC.
type PaymentHash [32]byte

// HTLC is a conditional payment embedded in a channel, redeemable by
// preimage before its CLTV expiry, else refundable (spec.md glossary).
// HTLCs are uniquely identified within a channel by (Direction, ID), per
// spec.md §3.
type HTLC struct {
	// ID is monotonically assigned per direction (spec.md §3 invariant
	// 2): the Nth HTLC offered in a given direction always has ID N-1.
	ID uint64

	// Direction records which side is the offerer.
	Direction Direction

	// Amount is the HTLC value, in millisatoshi.
	Amount lnwire.MilliSatoshi

	// PaymentHash is the hash that, along with the eventual preimage,
	// settles this HTLC.
	PaymentHash PaymentHash

	// CltvExpiry is the absolute block height after which this HTLC may
	// be timed out rather than fulfilled.
	CltvExpiry uint32

	// OnionBlob is the opaque onion-routing payload. The channel state
	// machine never inspects its contents; onion construction/parsing is
	// an external collaborator (spec.md §1).
	OnionBlob []byte

	// BlindingPoint is an optional ephemeral key present when this HTLC
	// is part of a blinded-route payment (spec.md §3).
	BlindingPoint *btcec.PublicKey
}

// Key uniquely identifies an HTLC within a channel.
type Key struct {
	Direction Direction
	ID        uint64
}

// Key returns the (direction, id) identity of this HTLC.
func (h HTLC) Key() Key {
	return Key{Direction: h.Direction, ID: h.ID}
}
