package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/btcutil"
)

func (bo *breachedOutput) Encode(w io.Writer) error {
	if err := binary.Write(w, endian, uint64(bo.amt)); err != nil {
		return err
	}
	if err := writeOutPoint(w, &bo.outpoint); err != nil {
		return err
	}
	return binary.Write(w, endian, bo.kind)
}

func (bo *breachedOutput) Decode(r io.Reader) error {
	var amt uint64
	if err := binary.Read(r, endian, &amt); err != nil {
		return err
	}
	bo.amt = btcutil.Amount(amt)

	if err := readOutPoint(r, &bo.outpoint); err != nil {
		return err
	}
	return binary.Read(r, endian, &bo.kind)
}

func (ret *retributionInfo) Encode(w io.Writer) error {
	if _, err := w.Write(ret.commitHash[:]); err != nil {
		return err
	}
	if err := writeOutPoint(w, &ret.chanPoint); err != nil {
		return err
	}

	if err := encodeOptionalOutput(w, ret.selfOutput); err != nil {
		return err
	}
	if err := encodeOptionalOutput(w, ret.revokedOutput); err != nil {
		return err
	}

	if err := binary.Write(w, endian, uint32(len(ret.htlcOutputs))); err != nil {
		return err
	}
	for _, out := range ret.htlcOutputs {
		if err := out.Encode(w); err != nil {
			return err
		}
	}

	return nil
}

func (ret *retributionInfo) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, ret.commitHash[:]); err != nil {
		return err
	}
	if err := readOutPoint(r, &ret.chanPoint); err != nil {
		return err
	}

	self, err := decodeOptionalOutput(r)
	if err != nil {
		return err
	}
	ret.selfOutput = self

	revoked, err := decodeOptionalOutput(r)
	if err != nil {
		return err
	}
	ret.revokedOutput = revoked

	var numHtlcs uint32
	if err := binary.Read(r, endian, &numHtlcs); err != nil {
		return err
	}
	ret.htlcOutputs = make([]*breachedOutput, numHtlcs)
	for i := range ret.htlcOutputs {
		out := &breachedOutput{}
		if err := out.Decode(r); err != nil {
			return err
		}
		ret.htlcOutputs[i] = out
	}

	return nil
}

func encodeOptionalOutput(w io.Writer, out *breachedOutput) error {
	present := out != nil
	if err := binary.Write(w, endian, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return out.Encode(w)
}

func decodeOptionalOutput(r io.Reader) (*breachedOutput, error) {
	var present bool
	if err := binary.Read(r, endian, &present); err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	out := &breachedOutput{}
	if err := out.Decode(r); err != nil {
		return nil, err
	}
	return out, nil
}
