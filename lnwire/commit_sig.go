package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// CommitSig is sent by either side to stage a new commitment for their
// counterparty, along with one HTLC signature per non-dust HTLC that will
// appear on the new commitment transaction. It is the "sign" leg of the
// propose -> sign -> revoke -> ack update protocol (spec.md §4.3).
type CommitSig struct {
	// ChanID uniquely identifies to which currently active channel this
	// CommitSig applies to.
	ChanID ChannelID

	// CommitSig is the signature for the new commitment transaction.
	// This value is never nil.
	CommitSig *ecdsa.Signature

	// HtlcSigs is a signature for each relevant HTLC output within the
	// created commitment. The order of the signatures must strictly
	// follow the ordering of the HTLCs on the commitment transaction.
	HtlcSigs []*ecdsa.Signature
}

// A compile time check to ensure CommitSig implements the lnwire.Message
// interface.
var _ Message = (*CommitSig)(nil)

// Decode deserializes a serialized CommitSig from r.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) Decode(r io.Reader, pver uint32) error {
	if err := readElements(r, &c.ChanID, &c.CommitSig); err != nil {
		return err
	}

	var numSigs uint16
	if err := readElement(r, &numSigs); err != nil {
		return err
	}

	c.HtlcSigs = make([]*ecdsa.Signature, numSigs)
	for i := 0; i < int(numSigs); i++ {
		if err := readElement(r, &c.HtlcSigs[i]); err != nil {
			return err
		}
	}

	return nil
}

// Encode serializes the target CommitSig into w.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) Encode(w io.Writer, pver uint32) error {
	if err := writeElements(w, c.ChanID, c.CommitSig); err != nil {
		return err
	}

	if err := writeElement(w, uint16(len(c.HtlcSigs))); err != nil {
		return err
	}
	for _, sig := range c.HtlcSigs {
		if err := writeElement(w, sig); err != nil {
			return err
		}
	}

	return nil
}

// MsgType returns the integer uniquely identifying this message type.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) MsgType() MessageType {
	return MsgCommitSig
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message.
//
// This is part of the lnwire.Message interface.
func (c *CommitSig) MaxPayloadLength(uint32) uint32 {
	return 65531
}
