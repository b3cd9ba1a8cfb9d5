package lnwire

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// BOLT #3 fixes the wire encoding of a signature at 64 bytes: a raw,
// fixed-width (r, s) pair with no DER framing, unlike the variable-length
// encoding btcec's Signature.Serialize normally produces.

// serializeCompactSig encodes sig as the 64-byte fixed-width (r, s) pair
// used on the wire.
func serializeCompactSig(sig *ecdsa.Signature) []byte {
	der := sig.Serialize()
	r, s := parseDER(der)

	out := make([]byte, 64)
	copy(out[32-len(r):32], r)
	copy(out[64-len(s):64], s)
	return out
}

// parseCompactSig decodes the 64-byte fixed-width (r, s) encoding used on
// the wire back into an ecdsa.Signature.
func parseCompactSig(b []byte) (*ecdsa.Signature, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("lnwire: invalid signature length %d, "+
			"want 64", len(b))
	}

	var rBytes, sBytes [32]byte
	copy(rBytes[:], b[:32])
	copy(sBytes[:], b[32:])

	var r, s btcec.ModNScalar
	r.SetBytes(&rBytes)
	s.SetBytes(&sBytes)

	return ecdsa.NewSignature(&r, &s), nil
}

// parseDER extracts the raw big-endian (r, s) byte strings from a
// DER-encoded ECDSA signature. It assumes a well-formed signature as
// produced by ecdsa.Signature.Serialize, and is only used to translate
// between the compact wire format and btcec's in-memory representation.
func parseDER(der []byte) (r, s []byte) {
	// DER: 0x30 <len> 0x02 <rlen> <r> 0x02 <slen> <s>
	if len(der) < 8 || der[0] != 0x30 {
		return nil, nil
	}
	idx := 2
	rLen := int(der[idx+1])
	r = der[idx+2 : idx+2+rLen]
	idx += 2 + rLen
	sLen := int(der[idx+1])
	s = der[idx+2 : idx+2+sLen]

	// Strip any leading zero padding byte DER uses to disambiguate sign.
	for len(r) > 0 && r[0] == 0x00 {
		r = r[1:]
	}
	for len(s) > 0 && s[0] == 0x00 {
		s = s[1:]
	}
	return r, s
}
