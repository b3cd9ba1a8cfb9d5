package channeldb

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchannel/lnchannel/commitment"
	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// This file is the single canonical binary codec for a Commitments value —
// the "blob" column of the Channels table (spec.md §6). Every other
// representation (the denormalized JSON index) is derived from it, never
// the other way around.
//
// Grounded on the teacher's channeldb serialization style (manual
// binary.Write/Read per field, varbytes for variable-length data) rather
// than a generic encoding/gob round trip, so the on-disk shape stays
// explicit and forward-compatible the way the teacher's migration list
// expects.

var endian = binary.BigEndian

func writeVarBytes(w io.Writer, b []byte) error {
	return wire.WriteVarBytes(w, 0, b)
}

func readVarBytes(r io.Reader, maxLen uint32) ([]byte, error) {
	return wire.ReadVarBytes(r, 0, maxLen, "channeldb")
}

func writeBool(w io.Writer, b bool) error {
	return binary.Write(w, endian, b)
}

func readBool(r io.Reader) (bool, error) {
	var b bool
	err := binary.Read(r, endian, &b)
	return b, err
}

func writePubKey(w io.Writer, pub *btcec.PublicKey) error {
	present := pub != nil
	if err := writeBool(w, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	_, err := w.Write(pub.SerializeCompressed())
	return err
}

func readPubKey(r io.Reader) (*btcec.PublicKey, error) {
	present, err := readBool(r)
	if err != nil || !present {
		return nil, err
	}
	var buf [33]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(buf[:])
}

func writeSig(w io.Writer, sig *ecdsa.Signature) error {
	present := sig != nil
	if err := writeBool(w, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return writeVarBytes(w, sig.Serialize())
}

func readSig(r io.Reader) (*ecdsa.Signature, error) {
	present, err := readBool(r)
	if err != nil || !present {
		return nil, err
	}
	raw, err := readVarBytes(r, 80)
	if err != nil {
		return nil, err
	}
	return ecdsa.ParseDERSignature(raw)
}

func writeSigs(w io.Writer, sigs []*ecdsa.Signature) error {
	if err := binary.Write(w, endian, uint32(len(sigs))); err != nil {
		return err
	}
	for _, s := range sigs {
		if err := writeSig(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readSigs(r io.Reader) ([]*ecdsa.Signature, error) {
	var n uint32
	if err := binary.Read(r, endian, &n); err != nil {
		return nil, err
	}
	sigs := make([]*ecdsa.Signature, n)
	for i := range sigs {
		s, err := readSig(r)
		if err != nil {
			return nil, err
		}
		sigs[i] = s
	}
	return sigs, nil
}

func writeTx(w io.Writer, tx *wire.MsgTx) error {
	present := tx != nil
	if err := writeBool(w, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return tx.Serialize(w)
}

func readTx(r io.Reader) (*wire.MsgTx, error) {
	present, err := readBool(r)
	if err != nil || !present {
		return nil, err
	}
	tx := wire.NewMsgTx(2)
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	return tx, nil
}

func writeOutPoint(w io.Writer, op *wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, endian, op.Index)
}

func readOutPoint(r io.Reader, op *wire.OutPoint) error {
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return err
	}
	return binary.Read(r, endian, &op.Index)
}

func writeHTLC(w io.Writer, h *htlc.HTLC) error {
	if err := binary.Write(w, endian, h.ID); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.Direction); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(h.Amount)); err != nil {
		return err
	}
	if _, err := w.Write(h.PaymentHash[:]); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.CltvExpiry); err != nil {
		return err
	}
	if err := writeVarBytes(w, h.OnionBlob); err != nil {
		return err
	}
	return writePubKey(w, h.BlindingPoint)
}

func readHTLC(r io.Reader) (htlc.HTLC, error) {
	var h htlc.HTLC
	if err := binary.Read(r, endian, &h.ID); err != nil {
		return h, err
	}
	if err := binary.Read(r, endian, &h.Direction); err != nil {
		return h, err
	}
	var amt uint64
	if err := binary.Read(r, endian, &amt); err != nil {
		return h, err
	}
	h.Amount = lnwire.MilliSatoshi(amt)
	if _, err := io.ReadFull(r, h.PaymentHash[:]); err != nil {
		return h, err
	}
	if err := binary.Read(r, endian, &h.CltvExpiry); err != nil {
		return h, err
	}
	blob, err := readVarBytes(r, 1<<20)
	if err != nil {
		return h, err
	}
	h.OnionBlob = blob
	pub, err := readPubKey(r)
	if err != nil {
		return h, err
	}
	h.BlindingPoint = pub
	return h, nil
}

func writeSpec(w io.Writer, s *commitment.Spec) error {
	htlcs := s.HtlcList()
	if err := binary.Write(w, endian, uint32(len(htlcs))); err != nil {
		return err
	}
	for _, h := range htlcs {
		if err := writeHTLC(w, &h); err != nil {
			return err
		}
	}
	if err := binary.Write(w, endian, uint64(s.FeePerKw)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(s.ToLocal)); err != nil {
		return err
	}
	return binary.Write(w, endian, uint64(s.ToRemote))
}

func readSpec(r io.Reader) (commitment.Spec, error) {
	var s commitment.Spec
	var n uint32
	if err := binary.Read(r, endian, &n); err != nil {
		return s, err
	}
	s.Htlcs = make(map[htlc.Key]htlc.HTLC, n)
	for i := uint32(0); i < n; i++ {
		h, err := readHTLC(r)
		if err != nil {
			return s, err
		}
		s.Htlcs[htlc.Key{Direction: h.Direction, ID: h.ID}] = h
	}

	var fee, toLocal, toRemote uint64
	if err := binary.Read(r, endian, &fee); err != nil {
		return s, err
	}
	s.FeePerKw = btcutil.Amount(fee)
	if err := binary.Read(r, endian, &toLocal); err != nil {
		return s, err
	}
	s.ToLocal = lnwire.MilliSatoshi(toLocal)
	if err := binary.Read(r, endian, &toRemote); err != nil {
		return s, err
	}
	s.ToRemote = lnwire.MilliSatoshi(toRemote)
	return s, nil
}

func writeUpdate(w io.Writer, u *commitment.Update) error {
	if err := binary.Write(w, endian, u.Kind); err != nil {
		return err
	}
	if err := binary.Write(w, endian, u.LogIndex); err != nil {
		return err
	}
	if err := writeHTLC(w, &u.HTLC); err != nil {
		return err
	}
	if err := binary.Write(w, endian, u.HtlcKey.Direction); err != nil {
		return err
	}
	if err := binary.Write(w, endian, u.HtlcKey.ID); err != nil {
		return err
	}
	if _, err := w.Write(u.Preimage[:]); err != nil {
		return err
	}
	if err := writeVarBytes(w, u.FailReason); err != nil {
		return err
	}
	if err := binary.Write(w, endian, u.FailCode); err != nil {
		return err
	}
	if _, err := w.Write(u.ShaOnionBlob[:]); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(u.FeePerKw)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, u.AddCommitHeightLocal); err != nil {
		return err
	}
	return binary.Write(w, endian, u.AddCommitHeightRemote)
}

func readUpdate(r io.Reader) (commitment.Update, error) {
	var u commitment.Update
	if err := binary.Read(r, endian, &u.Kind); err != nil {
		return u, err
	}
	if err := binary.Read(r, endian, &u.LogIndex); err != nil {
		return u, err
	}
	h, err := readHTLC(r)
	if err != nil {
		return u, err
	}
	u.HTLC = h
	if err := binary.Read(r, endian, &u.HtlcKey.Direction); err != nil {
		return u, err
	}
	if err := binary.Read(r, endian, &u.HtlcKey.ID); err != nil {
		return u, err
	}
	if _, err := io.ReadFull(r, u.Preimage[:]); err != nil {
		return u, err
	}
	reason, err := readVarBytes(r, 65536)
	if err != nil {
		return u, err
	}
	u.FailReason = reason
	if err := binary.Read(r, endian, &u.FailCode); err != nil {
		return u, err
	}
	if _, err := io.ReadFull(r, u.ShaOnionBlob[:]); err != nil {
		return u, err
	}
	var fee uint64
	if err := binary.Read(r, endian, &fee); err != nil {
		return u, err
	}
	u.FeePerKw = btcutil.Amount(fee)
	if err := binary.Read(r, endian, &u.AddCommitHeightLocal); err != nil {
		return u, err
	}
	if err := binary.Read(r, endian, &u.AddCommitHeightRemote); err != nil {
		return u, err
	}
	return u, nil
}

// EncodeCommitments writes the single canonical binary encoding of c.
func EncodeCommitments(w io.Writer, c *commitment.Commitments) error {
	if err := writeParams(w, &c.Params); err != nil {
		return err
	}

	if err := binary.Write(w, endian, uint32(len(c.Active))); err != nil {
		return err
	}
	for i := range c.Active {
		if err := writeCommitment(w, &c.Active[i]); err != nil {
			return err
		}
	}

	if err := writeChangeLog(w, &c.LocalChanges); err != nil {
		return err
	}
	if err := writeChangeLog(w, &c.RemoteChanges); err != nil {
		return err
	}

	seed := c.ShaChain.Producer.Seed()
	if err := writeVarBytes(w, seed[:]); err != nil {
		return err
	}
	rcvBytes, err := c.ShaChain.Receiver.Encode()
	if err != nil {
		return err
	}
	return writeVarBytes(w, rcvBytes)
}

// DecodeCommitments reconstructs a Commitments value from the byte stream
// EncodeCommitments previously wrote.
func DecodeCommitments(r io.Reader) (commitment.Commitments, error) {
	var c commitment.Commitments

	params, err := readParams(r)
	if err != nil {
		return c, err
	}
	c.Params = params

	var n uint32
	if err := binary.Read(r, endian, &n); err != nil {
		return c, err
	}
	c.Active = make([]commitment.Commitment, n)
	for i := range c.Active {
		cm, err := readCommitment(r)
		if err != nil {
			return c, err
		}
		c.Active[i] = cm
	}

	local, err := readChangeLog(r)
	if err != nil {
		return c, err
	}
	c.LocalChanges = local

	remote, err := readChangeLog(r)
	if err != nil {
		return c, err
	}
	c.RemoteChanges = remote

	seedBytes, err := readVarBytes(r, 32)
	if err != nil {
		return c, err
	}
	var seed shachain.Secret
	copy(seed[:], seedBytes)
	c.ShaChain.Producer = shachain.NewProducer(seed)

	rcvBytes, err := readVarBytes(r, 1<<20)
	if err != nil {
		return c, err
	}
	receiver, err := shachain.DecodeReceiver(rcvBytes)
	if err != nil {
		return c, err
	}
	c.ShaChain.Receiver = receiver

	return c, nil
}

func writeChangeLog(w io.Writer, cl *commitment.ChangeLog) error {
	if err := binary.Write(w, endian, uint32(len(cl.Updates))); err != nil {
		return err
	}
	for i := range cl.Updates {
		if err := writeUpdate(w, &cl.Updates[i]); err != nil {
			return err
		}
	}
	return nil
}

func readChangeLog(r io.Reader) (commitment.ChangeLog, error) {
	var cl commitment.ChangeLog
	var n uint32
	if err := binary.Read(r, endian, &n); err != nil {
		return cl, err
	}
	cl.Updates = make([]commitment.Update, n)
	for i := range cl.Updates {
		u, err := readUpdate(r)
		if err != nil {
			return cl, err
		}
		cl.Updates[i] = u
	}
	return cl, nil
}

func writeLocalCommit(w io.Writer, lc *commitment.LocalCommit) error {
	if err := binary.Write(w, endian, lc.Index); err != nil {
		return err
	}
	if err := writeSpec(w, &lc.Spec); err != nil {
		return err
	}
	if err := writeTx(w, lc.CommitTx); err != nil {
		return err
	}
	if err := writeSig(w, lc.CommitSig); err != nil {
		return err
	}
	return writeSigs(w, lc.HtlcSigs)
}

func readLocalCommit(r io.Reader) (commitment.LocalCommit, error) {
	var lc commitment.LocalCommit
	if err := binary.Read(r, endian, &lc.Index); err != nil {
		return lc, err
	}
	spec, err := readSpec(r)
	if err != nil {
		return lc, err
	}
	lc.Spec = spec

	tx, err := readTx(r)
	if err != nil {
		return lc, err
	}
	lc.CommitTx = tx

	sig, err := readSig(r)
	if err != nil {
		return lc, err
	}
	lc.CommitSig = sig

	sigs, err := readSigs(r)
	if err != nil {
		return lc, err
	}
	lc.HtlcSigs = sigs
	return lc, nil
}

func writeRemoteCommit(w io.Writer, rc *commitment.RemoteCommit) error {
	if err := binary.Write(w, endian, rc.Index); err != nil {
		return err
	}
	if err := writeSpec(w, &rc.Spec); err != nil {
		return err
	}
	if err := writeTx(w, rc.CommitTx); err != nil {
		return err
	}
	return writePubKey(w, rc.RemoteNextPoint)
}

func readRemoteCommit(r io.Reader) (commitment.RemoteCommit, error) {
	var rc commitment.RemoteCommit
	if err := binary.Read(r, endian, &rc.Index); err != nil {
		return rc, err
	}
	spec, err := readSpec(r)
	if err != nil {
		return rc, err
	}
	rc.Spec = spec

	tx, err := readTx(r)
	if err != nil {
		return rc, err
	}
	rc.CommitTx = tx

	pub, err := readPubKey(r)
	if err != nil {
		return rc, err
	}
	rc.RemoteNextPoint = pub
	return rc, nil
}

const (
	remoteStateReady   uint8 = 0
	remoteStateWaiting uint8 = 1
)

func writeRemoteState(w io.Writer, state commitment.RemoteCommitState) error {
	switch s := state.(type) {
	case commitment.Ready:
		if err := binary.Write(w, endian, remoteStateReady); err != nil {
			return err
		}
		return writePubKey(w, s.NextPoint)
	case commitment.Waiting:
		if err := binary.Write(w, endian, remoteStateWaiting); err != nil {
			return err
		}
		if err := writeSig(w, s.SentSig); err != nil {
			return err
		}
		if err := writeSigs(w, s.HtlcSigs); err != nil {
			return err
		}
		return writeRemoteCommit(w, &s.Commit)
	default:
		return errUnknownRemoteState
	}
}

func readRemoteState(r io.Reader) (commitment.RemoteCommitState, error) {
	var tag uint8
	if err := binary.Read(r, endian, &tag); err != nil {
		return nil, err
	}

	switch tag {
	case remoteStateReady:
		pub, err := readPubKey(r)
		if err != nil {
			return nil, err
		}
		return commitment.Ready{NextPoint: pub}, nil

	case remoteStateWaiting:
		sentSig, err := readSig(r)
		if err != nil {
			return nil, err
		}
		htlcSigs, err := readSigs(r)
		if err != nil {
			return nil, err
		}
		commit, err := readRemoteCommit(r)
		if err != nil {
			return nil, err
		}
		return commitment.Waiting{
			SentSig:  sentSig,
			HtlcSigs: htlcSigs,
			Commit:   commit,
		}, nil

	default:
		return nil, errUnknownRemoteState
	}
}

func writeCommitment(w io.Writer, cm *commitment.Commitment) error {
	if err := writeOutPoint(w, &cm.FundingTxID); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(cm.Capacity)); err != nil {
		return err
	}
	if err := writeLocalCommit(w, &cm.LocalCommit); err != nil {
		return err
	}
	if err := writeRemoteCommit(w, &cm.RemoteCommit); err != nil {
		return err
	}
	if err := writeRemoteState(w, cm.RemoteState); err != nil {
		return err
	}
	if err := binary.Write(w, endian, cm.LocalFundingStatus); err != nil {
		return err
	}
	return binary.Write(w, endian, cm.RemoteFundingStatus)
}

func readCommitment(r io.Reader) (commitment.Commitment, error) {
	var cm commitment.Commitment
	if err := readOutPoint(r, &cm.FundingTxID); err != nil {
		return cm, err
	}
	var capacity uint64
	if err := binary.Read(r, endian, &capacity); err != nil {
		return cm, err
	}
	cm.Capacity = btcutil.Amount(capacity)

	lc, err := readLocalCommit(r)
	if err != nil {
		return cm, err
	}
	cm.LocalCommit = lc

	rc, err := readRemoteCommit(r)
	if err != nil {
		return cm, err
	}
	cm.RemoteCommit = rc

	state, err := readRemoteState(r)
	if err != nil {
		return cm, err
	}
	cm.RemoteState = state

	if err := binary.Read(r, endian, &cm.LocalFundingStatus); err != nil {
		return cm, err
	}
	return cm, binary.Read(r, endian, &cm.RemoteFundingStatus)
}

func writeSideConfig(w io.Writer, sc *commitment.SideConfig) error {
	if err := binary.Write(w, endian, uint64(sc.DustLimit)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(sc.ChanReserve)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, sc.MaxAcceptedHtlcs); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(sc.MaxHtlcValueInFlight)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, uint64(sc.HtlcMinimum)); err != nil {
		return err
	}
	if err := binary.Write(w, endian, sc.ToSelfDelay); err != nil {
		return err
	}
	return binary.Write(w, endian, uint64(sc.MaxDustExposure))
}

func readSideConfig(r io.Reader) (commitment.SideConfig, error) {
	var sc commitment.SideConfig
	var dustLimit, chanReserve, maxInFlight, htlcMin, maxExposure uint64

	if err := binary.Read(r, endian, &dustLimit); err != nil {
		return sc, err
	}
	sc.DustLimit = btcutil.Amount(dustLimit)

	if err := binary.Read(r, endian, &chanReserve); err != nil {
		return sc, err
	}
	sc.ChanReserve = btcutil.Amount(chanReserve)

	if err := binary.Read(r, endian, &sc.MaxAcceptedHtlcs); err != nil {
		return sc, err
	}
	if err := binary.Read(r, endian, &maxInFlight); err != nil {
		return sc, err
	}
	sc.MaxHtlcValueInFlight = lnwire.MilliSatoshi(maxInFlight)

	if err := binary.Read(r, endian, &htlcMin); err != nil {
		return sc, err
	}
	sc.HtlcMinimum = lnwire.MilliSatoshi(htlcMin)

	if err := binary.Read(r, endian, &sc.ToSelfDelay); err != nil {
		return sc, err
	}
	if err := binary.Read(r, endian, &maxExposure); err != nil {
		return sc, err
	}
	sc.MaxDustExposure = btcutil.Amount(maxExposure)
	return sc, nil
}

func writeParams(w io.Writer, p *commitment.Params) error {
	if _, err := w.Write(p.ChanID[:]); err != nil {
		return err
	}
	if err := writeBool(w, p.IsInitiator); err != nil {
		return err
	}
	if err := writeSideConfig(w, &p.Local); err != nil {
		return err
	}
	if err := writeSideConfig(w, &p.Remote); err != nil {
		return err
	}
	if err := binary.Write(w, endian, p.CommitmentFormat); err != nil {
		return err
	}
	if err := binary.Write(w, endian, p.MinFinalExpiryDelta); err != nil {
		return err
	}
	if err := binary.Write(w, endian, p.MaxExpiryDelta); err != nil {
		return err
	}
	if err := binary.Write(w, endian, p.DustExposureToleranceBp); err != nil {
		return err
	}

	if err := binary.Write(w, endian, uint32(len(p.BalanceThresholds))); err != nil {
		return err
	}
	for _, b := range p.BalanceThresholds {
		if err := binary.Write(w, endian, uint64(b)); err != nil {
			return err
		}
	}
	return nil
}

func readParams(r io.Reader) (commitment.Params, error) {
	var p commitment.Params
	if _, err := io.ReadFull(r, p.ChanID[:]); err != nil {
		return p, err
	}
	isInit, err := readBool(r)
	if err != nil {
		return p, err
	}
	p.IsInitiator = isInit

	local, err := readSideConfig(r)
	if err != nil {
		return p, err
	}
	p.Local = local

	remote, err := readSideConfig(r)
	if err != nil {
		return p, err
	}
	p.Remote = remote

	if err := binary.Read(r, endian, &p.CommitmentFormat); err != nil {
		return p, err
	}
	if err := binary.Read(r, endian, &p.MinFinalExpiryDelta); err != nil {
		return p, err
	}
	if err := binary.Read(r, endian, &p.MaxExpiryDelta); err != nil {
		return p, err
	}
	if err := binary.Read(r, endian, &p.DustExposureToleranceBp); err != nil {
		return p, err
	}

	var n uint32
	if err := binary.Read(r, endian, &n); err != nil {
		return p, err
	}
	p.BalanceThresholds = make([]btcutil.Amount, n)
	for i := range p.BalanceThresholds {
		var b uint64
		if err := binary.Read(r, endian, &b); err != nil {
			return p, err
		}
		p.BalanceThresholds[i] = btcutil.Amount(b)
	}
	return p, nil
}
