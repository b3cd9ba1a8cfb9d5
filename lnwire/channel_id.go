package lnwire

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ChannelID is a series of 32 bytes that uniquely identifies a channel on
// the Lightning Network, derived by XOR'ing the funding outpoint's txid with
// its output index. It is distinct from the funding ChannelPoint itself so
// that it stays stable across outputs sharing the same index in different
// transactions.
type ChannelID [32]byte

// NewChanIDFromOutPoint converts a target OutPoint into a ChannelID that is
// usable within the wire protocol.
func NewChanIDFromOutPoint(op *wire.OutPoint) ChannelID {
	var chanID [32]byte
	copy(chanID[:], op.Hash[:])

	chanID[30] ^= byte(op.Index >> 8)
	chanID[31] ^= byte(op.Index)

	return ChannelID(chanID)
}

// String returns the string representation of the ChannelID. This is just
// the hex string encoding of the ChannelID itself.
func (c ChannelID) String() string {
	return chainhash.Hash(c).String()
}
