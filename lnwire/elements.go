package lnwire

// code derived from the teacher's own readElements/writeElements convention
// (see message.go, update_fulfill_htlc.go) which the retrieved example pack
// referenced but did not happen to include the definition of.

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// readElement deserializes a single element from the given io.Reader,
// according to the concrete type pointed to by element.
func readElement(r io.Reader, element interface{}) error {
	var err error
	switch e := element.(type) {
	case *bool:
		var b [1]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0

	case *uint8:
		var b [1]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0]

	case *uint16:
		var b [2]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint16(b[:])

	case *uint32:
		var b [4]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint32(b[:])

	case *uint64:
		var b [8]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint64(b[:])

	case *MilliSatoshi:
		var b [8]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = MilliSatoshi(binary.BigEndian.Uint64(b[:]))

	case *ChannelID:
		if _, err = io.ReadFull(r, e[:]); err != nil {
			return err
		}

	case []byte:
		if _, err = io.ReadFull(r, e); err != nil {
			return err
		}

	case *[]byte:
		var l [2]byte
		if _, err = io.ReadFull(r, l[:]); err != nil {
			return err
		}
		length := binary.BigEndian.Uint16(l[:])

		buf := make([]byte, length)
		if _, err = io.ReadFull(r, buf); err != nil {
			return err
		}
		*e = buf

	case **btcec.PublicKey:
		var b [33]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		pubKey, err := btcec.ParsePubKey(b[:])
		if err != nil {
			return err
		}
		*e = pubKey

	case **ecdsa.Signature:
		var b [64]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return err
		}
		sig, err := parseCompactSig(b[:])
		if err != nil {
			return err
		}
		*e = sig

	default:
		return fmt.Errorf("lnwire: unknown type %T for readElement", e)
	}

	return nil
}

// readElements deserializes a variable number of elements, in order, from
// the passed io.Reader.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}

// writeElement serializes a single element into the given io.Writer,
// according to its concrete type.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, err := w.Write(b[:])
		return err

	case uint8:
		_, err := w.Write([]byte{e})
		return err

	case uint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], e)
		_, err := w.Write(b[:])
		return err

	case uint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err

	case uint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e)
		_, err := w.Write(b[:])
		return err

	case MilliSatoshi:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(e))
		_, err := w.Write(b[:])
		return err

	case ChannelID:
		_, err := w.Write(e[:])
		return err

	case []byte:
		_, err := w.Write(e)
		return err

	case *btcec.PublicKey:
		if e == nil {
			return fmt.Errorf("lnwire: cannot write nil public key")
		}
		_, err := w.Write(e.SerializeCompressed())
		return err

	case *ecdsa.Signature:
		if e == nil {
			return fmt.Errorf("lnwire: cannot write nil signature")
		}
		_, err := w.Write(serializeCompactSig(e))
		return err

	default:
		return fmt.Errorf("lnwire: unknown type %T for writeElement", e)
	}
}

// writeElements serializes a variable number of elements into w, in order.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

// writeVarBytes writes a length-prefixed (2-byte big-endian length) byte
// slice, used for variable-length opaque fields such as onion blobs and
// failure reasons.
func writeVarBytes(w io.Writer, b []byte) error {
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(b)))
	if _, err := w.Write(l[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
