package commitment

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// fakeSigner/fakeBuilder stand in for the real key-derivation/signing
// collaborators spec.md §1 places out of scope; tests only need them to
// produce deterministic, internally-consistent byte strings.
type fakeSigner struct{}

func (fakeSigner) SignCommitTx(tx *wire.MsgTx) (*ecdsa.Signature, error) {
	return &ecdsa.Signature{}, nil
}
func (fakeSigner) SignHtlcTx(tx *wire.MsgTx, outputIndex int) (*ecdsa.Signature, error) {
	return &ecdsa.Signature{}, nil
}
func (fakeSigner) VerifyCommitSig(tx *wire.MsgTx, sig *ecdsa.Signature) error { return nil }
func (fakeSigner) VerifyHtlcSig(tx *wire.MsgTx, outputIndex int, sig *ecdsa.Signature) error {
	return nil
}

type fakeBuilder struct{}

func (fakeBuilder) CommitTx(params Params, spec Spec, ownerIsLocal bool) (*wire.MsgTx, []HtlcOutput, error) {
	tx := wire.NewMsgTx(2)
	var untrimmed []HtlcOutput
	offered, received := TrimThresholds(params.CommitmentFormat, params.Local.DustLimit, spec.FeePerKw)
	i := 0
	for _, h := range spec.HtlcList() {
		amt := btcutil.Amount(h.Amount.ToSatoshis())
		thresh := received
		if h.Direction == htlc.Outgoing {
			thresh = offered
		}
		if amt < thresh {
			continue
		}
		untrimmed = append(untrimmed, HtlcOutput{OutputIndex: i, HTLC: h})
		i++
	}
	return tx, untrimmed, nil
}

func (fakeBuilder) HtlcTx(params Params, commitTx *wire.MsgTx, outputIndex int, ownerIsLocal bool) (*wire.MsgTx, error) {
	return wire.NewMsgTx(2), nil
}

func newTestCommitments() Commitments {
	params := Params{
		CommitmentFormat: FormatDefault,
		Local: SideConfig{
			DustLimit:        btcutil.Amount(546),
			MaxAcceptedHtlcs: 30,
		},
		Remote: SideConfig{
			DustLimit:        btcutil.Amount(546),
			MaxAcceptedHtlcs: 30,
		},
	}
	genesis := Spec{
		Htlcs:    map[htlc.Key]htlc.HTLC{},
		FeePerKw: 10_000,
		ToLocal:  lnwire.NewMSatFromSatoshis(800_000),
		ToRemote: lnwire.NewMSatFromSatoshis(200_000),
	}
	return Commitments{
		Params: params,
		Active: []Commitment{
			{
				LocalCommit:  LocalCommit{Index: 0, Spec: genesis},
				RemoteCommit: RemoteCommit{Index: 0, Spec: genesis},
				RemoteState:  Ready{},
			},
		},
		ShaChain: ShaChainState{},
	}
}

func TestSendCommitRequiresPendingChanges(t *testing.T) {
	c := newTestCommitments()
	_, _, err := SendCommit(c, fakeSigner{}, fakeBuilder{})
	require.ErrorIs(t, err, ErrCannotSignWithoutChanges)
}

func TestSendCommitAppliesLocalAdd(t *testing.T) {
	c := newTestCommitments()

	c, err := AddLocalProposal(c, false, Update{
		Kind: Add,
		HTLC: htlc.HTLC{
			Amount:      lnwire.NewMSatFromSatoshis(50_000),
			CltvExpiry:  500_000,
			PaymentHash: htlc.PaymentHash{0xaa},
		},
	})
	require.NoError(t, err)

	c, _, err = SendCommit(c, fakeSigner{}, fakeBuilder{})
	require.NoError(t, err)

	newRemote := c.Current().RemoteState.(Waiting).Commit
	require.Equal(t, int64(1), newRemote.Index)
	require.Len(t, newRemote.Spec.Htlcs, 1)
	require.Equal(t, lnwire.NewMSatFromSatoshis(750_000), newRemote.Spec.ToLocal)
}

func TestReceiveCommitAdvancesLocalCommit(t *testing.T) {
	c := newTestCommitments()

	c, err := AddRemoteProposal(c, Update{
		Kind: Add,
		HTLC: htlc.HTLC{
			Amount:      lnwire.NewMSatFromSatoshis(25_000),
			CltvExpiry:  500_000,
			PaymentHash: htlc.PaymentHash{0xbb},
		},
	})
	require.NoError(t, err)

	c, _, err = ReceiveCommit(c, fakeSigner{}, fakeBuilder{}, &ecdsa.Signature{}, []*ecdsa.Signature{{}})
	require.NoError(t, err)

	require.Equal(t, int64(1), c.Current().LocalCommit.Index)
	require.Len(t, c.Current().LocalCommit.Spec.Htlcs, 1)
}

func TestReceiveCommitRejectsHtlcSigCountMismatch(t *testing.T) {
	c := newTestCommitments()

	c, err := AddRemoteProposal(c, Update{
		Kind: Add,
		HTLC: htlc.HTLC{
			Amount:      lnwire.NewMSatFromSatoshis(600_000),
			CltvExpiry:  500_000,
			PaymentHash: htlc.PaymentHash{0xcc},
		},
	})
	require.NoError(t, err)

	_, _, err = ReceiveCommit(c, fakeSigner{}, fakeBuilder{}, &ecdsa.Signature{}, nil)
	require.Error(t, err)
	require.IsType(t, ErrHtlcSigCountMismatch{}, err)
}

func TestReceiveRevocationRotatesRemoteCommit(t *testing.T) {
	c := newTestCommitments()

	c, err := AddLocalProposal(c, false, Update{
		Kind: Add,
		HTLC: htlc.HTLC{
			Amount:      lnwire.NewMSatFromSatoshis(10_000),
			CltvExpiry:  500_000,
			PaymentHash: htlc.PaymentHash{0xdd},
		},
	})
	require.NoError(t, err)

	c, _, err = SendCommit(c, fakeSigner{}, fakeBuilder{})
	require.NoError(t, err)

	c, err = ReceiveRevocation(c, 0, [32]byte{0x01}, func(shachain.Secret) bool { return true })
	require.NoError(t, err)

	require.IsType(t, Ready{}, c.Current().RemoteState)
	require.Equal(t, int64(1), c.Current().RemoteCommit.Index)
}

func TestReceiveRevocationRejectsWhenNotWaiting(t *testing.T) {
	c := newTestCommitments()
	_, err := ReceiveRevocation(c, 0, [32]byte{}, func(shachain.Secret) bool { return true })
	require.ErrorIs(t, err, ErrNotWaitingForRevocation)
}
