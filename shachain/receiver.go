package shachain

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// node is one stored secret, bucketed by the trailing-zero-count ("height")
// of its shachain index. Field shape mirrors elkrem's ElkremNode (h, i,
// sha) verbatim (elkrem/serdes.go), renamed to this package's vocabulary.
type node struct {
	height uint8
	index  uint64
	secret Secret
}

// Receiver is the verifying side of a shachain: it stores at most
// maxHeight secrets (one per trailing-zero bucket) yet can reproduce the
// secret for any previously-received commitment height, and can validate
// that a newly-revealed secret is consistent with everything received so
// far. Grounded on elkrem's ElkremReceiver, whose ToBytes/FromBytes
// (elkrem/serdes.go) this package's Encode/Decode follow byte-for-byte in
// shape (1-byte height, 8-byte index, 32-byte hash, per entry).
type Receiver struct {
	nodes []node
}

// NewReceiver returns an empty Receiver, ready to accept revealed secrets in
// increasing commitment-height order.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// AddNextEntry records the secret revealed for the given commitment height.
// It is validated against every previously stored secret that the new one
// subsumes (i.e. every older entry whose index is a descendant of this
// one's): each must re-derive identically from the new secret, or the
// counterparty is either buggy or attempting a replay (spec.md §4.3
// RevokeAndAck validation: "the revealed scalar must produce the previously
// committed per-commitment point... Mismatch is fatal").
func (r *Receiver) AddNextEntry(height uint64, secret Secret) error {
	index := commitmentIndex(height)
	newHeight := countTrailingZeros(index)

	var kept []node
	for _, n := range r.nodes {
		if !isDescendant(index, newHeight, n.index) {
			kept = append(kept, n)
			continue
		}

		want := derive(secret, n.index&(1<<newHeight-1))
		if want != n.secret {
			return fmt.Errorf("shachain: secret at height %d does not "+
				"reproduce previously stored secret at index %d",
				height, n.index)
		}
	}

	kept = append(kept, node{height: newHeight, index: index, secret: secret})
	r.nodes = kept
	return nil
}

// LookupSecret returns the secret for the given commitment height, if it is
// derivable from what has been stored so far.
func (r *Receiver) LookupSecret(height uint64) (Secret, error) {
	index := commitmentIndex(height)

	for _, n := range r.nodes {
		if isDescendant(n.index, n.height, index) {
			return derive(n.secret, index&(1<<n.height-1)), nil
		}
	}

	return Secret{}, fmt.Errorf("shachain: no secret known that can "+
		"derive commitment height %d", height)
}

// Encode serializes the Receiver's stored nodes. Format matches elkrem's
// ElkremReceiver.ToBytes: a 1-byte count followed by, per node, 1-byte
// height + 8-byte index + 32-byte secret.
func (r *Receiver) Encode() ([]byte, error) {
	if len(r.nodes) > 255 {
		return nil, fmt.Errorf("shachain: receiver has %d nodes, max 255",
			len(r.nodes))
	}
	if len(r.nodes) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := buf.WriteByte(uint8(len(r.nodes))); err != nil {
		return nil, err
	}
	for _, n := range r.nodes {
		if err := buf.WriteByte(n.height); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.BigEndian, n.index); err != nil {
			return nil, err
		}
		if _, err := buf.Write(n.secret[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeReceiver reverses Encode.
func DecodeReceiver(b []byte) (*Receiver, error) {
	if len(b) == 0 {
		return NewReceiver(), nil
	}

	buf := bytes.NewBuffer(b)
	count, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	const entrySize = 1 + 8 + 32
	if buf.Len() != int(count)*entrySize {
		return nil, fmt.Errorf("shachain: malformed receiver blob: "+
			"expected %d remaining bytes, got %d",
			int(count)*entrySize, buf.Len())
	}

	r := &Receiver{nodes: make([]node, count)}
	for i := range r.nodes {
		h, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		var index uint64
		if err := binary.Read(buf, binary.BigEndian, &index); err != nil {
			return nil, err
		}
		var secret Secret
		if _, err := buf.Read(secret[:]); err != nil {
			return nil, err
		}
		r.nodes[i] = node{height: h, index: index, secret: secret}
	}
	return r, nil
}
