package commitment

import (
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/lnchannel/lnchannel/htlc"
	"github.com/lnchannel/lnchannel/lnwire"
	"github.com/lnchannel/lnchannel/shachain"
)

// AddLocalProposal appends update to our own change log. It does not affect
// either commitment until a subsequent sendCommit/receiveCommit round
// applies it. Matches spec.md §4.1 addLocalProposal.
func AddLocalProposal(c Commitments, shuttingDown bool, update Update) (Commitments, error) {
	if shuttingDown && update.Kind == Add {
		return Commitments{}, ErrChannelShuttingDown
	}

	update.LogIndex = c.LocalChanges.nextLogIndex
	if update.Kind == Add {
		update.HTLC.ID = c.LocalChanges.nextHtlcID
		update.HTLC.Direction = htlc.Outgoing
	}

	out := c
	out.LocalChanges = c.LocalChanges.append(update)
	return out, nil
}

// AddRemoteProposal appends update to the remote party's change log,
// validating that an Add carries the ID we expect next for their log
// (spec.md §4.1 addRemoteProposal: "fatal UnexpectedHtlcId" otherwise).
func AddRemoteProposal(c Commitments, update Update) (Commitments, error) {
	if update.Kind == Add && update.HTLC.ID != c.RemoteChanges.nextHtlcID {
		return Commitments{}, ErrUnexpectedHtlcID{
			Expected: c.RemoteChanges.nextHtlcID,
			Got:      update.HTLC.ID,
		}
	}
	if update.Kind == Add {
		update.HTLC.Direction = htlc.Incoming
	}

	update.LogIndex = c.RemoteChanges.nextLogIndex

	out := c
	out.RemoteChanges = c.RemoteChanges.append(update)
	return out, nil
}

// selectUpdates returns the entries of log not yet included in the chain
// identified by forLocal. When requireOtherChain is true, an entry is only
// returned once it is already included in the *other* chain — this is how
// a party decides which of the counterparty's proposals are safe to fold
// into a commitment it is building for the counterparty: only proposals it
// has already locked into its own commitment, never a bare in-flight
// proposal, matching real-world concurrent-proposal handling.
func selectUpdates(log ChangeLog, forLocal, requireOtherChain bool) []Update {
	var out []Update
	for _, u := range log.Updates {
		this, other := u.AddCommitHeightLocal, u.AddCommitHeightRemote
		if !forLocal {
			this, other = u.AddCommitHeightRemote, u.AddCommitHeightLocal
		}
		if this != 0 {
			continue
		}
		if requireOtherChain && other == 0 {
			continue
		}
		out = append(out, u)
	}
	return out
}

// view is the outcome of folding a set of updates into a base Spec: the
// resulting HTLC set plus the balance/feerate it implies. Grounded on the
// teacher's htlcView/evaluateHTLCView (lnwallet/channel.go), collapsed from
// a mutate-in-place walk into a pure fold.
type view struct {
	htlcs    map[htlc.Key]htlc.HTLC
	toLocal  lnwire.MilliSatoshi
	toRemote lnwire.MilliSatoshi
	feePerKw btcutil.Amount
}

// applyUpdates folds updates (already carrying the correct HTLC.Direction,
// stamped at proposal time by AddLocalProposal/AddRemoteProposal) into v.
func applyUpdates(v view, updates []Update) view {
	next := view{
		htlcs:    make(map[htlc.Key]htlc.HTLC, len(v.htlcs)),
		toLocal:  v.toLocal,
		toRemote: v.toRemote,
		feePerKw: v.feePerKw,
	}
	for k, h := range v.htlcs {
		next.htlcs[k] = h
	}

	for _, u := range updates {
		switch u.Kind {
		case Add:
			h := u.HTLC
			if h.Direction == htlc.Outgoing {
				next.toLocal -= h.Amount
			} else {
				next.toRemote -= h.Amount
			}
			next.htlcs[h.Key()] = h

		case Fulfill:
			h, ok := next.htlcs[u.HtlcKey]
			if !ok {
				continue
			}
			delete(next.htlcs, u.HtlcKey)
			// The HTLC's value moves to whichever party did NOT
			// offer it.
			if h.Direction == htlc.Outgoing {
				next.toRemote += h.Amount
			} else {
				next.toLocal += h.Amount
			}

		case Fail, FailMalformed:
			h, ok := next.htlcs[u.HtlcKey]
			if !ok {
				continue
			}
			delete(next.htlcs, u.HtlcKey)
			// Value returns to whoever offered it.
			if h.Direction == htlc.Outgoing {
				next.toLocal += h.Amount
			} else {
				next.toRemote += h.Amount
			}

		case FeeUpdate:
			next.feePerKw = u.FeePerKw
		}
	}

	return next
}

// buildSpec constructs the Spec a fresh commitment would have, applying
// updates (already combined and in log order across both change logs) on
// top of base.
func buildSpec(base Spec, updates []Update) Spec {
	v := view{
		htlcs:    base.Htlcs,
		toLocal:  base.ToLocal,
		toRemote: base.ToRemote,
		feePerKw: base.FeePerKw,
	}

	v = applyUpdates(v, updates)

	return Spec{
		Htlcs:    v.htlcs,
		FeePerKw: v.feePerKw,
		ToLocal:  v.toLocal,
		ToRemote: v.toRemote,
	}
}

// pendingUpdatesForChain gathers, in log order, everything that should be
// folded into a fresh commitment on the chain identified by forLocal: the
// signing party's own not-yet-included proposals (ours when building the
// remote chain, the counterparty's when building the local chain), plus the
// other party's proposals that are not yet on this chain but are already
// locked into the other chain (see selectUpdates).
func pendingUpdatesForChain(c Commitments, forLocal bool) []Update {
	var own, other ChangeLog
	if forLocal {
		own, other = c.RemoteChanges, c.LocalChanges
	} else {
		own, other = c.LocalChanges, c.RemoteChanges
	}

	combined := append(
		selectUpdates(own, forLocal, false),
		selectUpdates(other, forLocal, true)...,
	)
	return combined
}

// HasUnsignedLocalChanges reports whether c has any local proposal not yet
// included in the remote commitment chain — the gate spec.md §4.4 NORMAL's
// CMD_CLOSE rule checks ("may be issued only if we have no unsigned local
// changes and no pending fee update").
func HasUnsignedLocalChanges(c Commitments) bool {
	return len(selectUpdates(c.LocalChanges, false, false)) > 0
}

// CommitSigOut is the CommitSig wire payload SendCommit produces for
// transmission to the counterparty.
type CommitSigOut struct {
	Sig      *ecdsa.Signature
	HtlcSigs []*ecdsa.Signature
}

// SendCommit applies every pending local proposal plus every locked-in
// remote proposal to build a fresh remote commitment at
// remoteCommit.index+1, signs it (and each of its untrimmed HTLC outputs),
// and moves RemoteState to Waiting. Matches spec.md §4.1 sendCommit.
func SendCommit(
	c Commitments, signer Signer, builder TxBuilder,
) (Commitments, CommitSigOut, error) {

	pending := pendingUpdatesForChain(c, false)
	if len(pending) == 0 {
		return Commitments{}, CommitSigOut{}, ErrCannotSignWithoutChanges
	}

	current := c.Current()
	newHeight := current.RemoteCommit.Index + 1
	newSpec := buildSpec(current.RemoteCommit.Spec, pending)

	tx, untrimmed, err := builder.CommitTx(c.Params, newSpec, false)
	if err != nil {
		return Commitments{}, CommitSigOut{}, err
	}

	commitSig, err := signer.SignCommitTx(tx)
	if err != nil {
		return Commitments{}, CommitSigOut{}, err
	}

	htlcSigs := make([]*ecdsa.Signature, len(untrimmed))
	for i, h := range untrimmed {
		htlcTx, err := builder.HtlcTx(c.Params, tx, h.OutputIndex, false)
		if err != nil {
			return Commitments{}, CommitSigOut{}, err
		}
		sig, err := signer.SignHtlcTx(htlcTx, h.OutputIndex)
		if err != nil {
			return Commitments{}, CommitSigOut{}, err
		}
		htlcSigs[i] = sig
	}

	newRemoteCommit := RemoteCommit{
		Index:    newHeight,
		Spec:     newSpec,
		CommitTx: tx,
	}

	nextCurrent := current
	nextCurrent.RemoteState = Waiting{
		SentSig:  commitSig,
		HtlcSigs: htlcSigs,
		Commit:   newRemoteCommit,
	}

	out := c.withCurrent(nextCurrent)
	out.LocalChanges = out.LocalChanges.markIncluded(indexesOf(c.LocalChanges, pending), false, int64(newHeight))
	out.RemoteChanges = out.RemoteChanges.markIncluded(indexesOf(c.RemoteChanges, pending), false, int64(newHeight))

	return out, CommitSigOut{Sig: commitSig, HtlcSigs: htlcSigs}, nil
}

// indexesOf returns the positions within log.Updates of every update in
// subset, matched by LogIndex (stable even though subset was built by
// filtering a copy of log.Updates).
func indexesOf(log ChangeLog, subset []Update) []int {
	want := make(map[uint64]struct{}, len(subset))
	for _, u := range subset {
		want[u.LogIndex] = struct{}{}
	}
	var idxs []int
	for i, u := range log.Updates {
		if _, ok := want[u.LogIndex]; ok {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// ReceiveCommit validates a CommitSig received from the counterparty
// against a fresh local commitment at localCommit.index+1 built from the
// counterparty's not-yet-included proposals plus our own proposals already
// locked into the remote chain, then advances LocalCommit and returns our RevokeAndAck for the
// commitment it replaces. Matches spec.md §4.1 receiveCommit.
func ReceiveCommit(
	c Commitments, signer Signer, builder TxBuilder,
	sig *ecdsa.Signature, htlcSigs []*ecdsa.Signature,
) (Commitments, RevocationOut, error) {

	current := c.Current()
	pending := pendingUpdatesForChain(c, true)
	newHeight := current.LocalCommit.Index + 1
	newSpec := buildSpec(current.LocalCommit.Spec, pending)

	tx, untrimmed, err := builder.CommitTx(c.Params, newSpec, true)
	if err != nil {
		return Commitments{}, RevocationOut{}, err
	}

	if len(htlcSigs) != len(untrimmed) {
		return Commitments{}, RevocationOut{}, ErrHtlcSigCountMismatch{
			Expected: len(untrimmed),
			Got:      len(htlcSigs),
		}
	}

	if err := signer.VerifyCommitSig(tx, sig); err != nil {
		return Commitments{}, RevocationOut{}, ErrInvalidCommitSig{CommitHeight: int64(newHeight)}
	}

	for i, h := range untrimmed {
		htlcTx, err := builder.HtlcTx(c.Params, tx, h.OutputIndex, true)
		if err != nil {
			return Commitments{}, RevocationOut{}, err
		}
		if err := signer.VerifyHtlcSig(htlcTx, h.OutputIndex, htlcSigs[i]); err != nil {
			return Commitments{}, RevocationOut{}, ErrInvalidHtlcSig{OutputIndex: h.OutputIndex}
		}
	}

	newLocalCommit := LocalCommit{
		Index:     newHeight,
		Spec:      newSpec,
		CommitTx:  tx,
		CommitSig: sig,
		HtlcSigs:  htlcSigs,
	}

	revokedHeight := current.LocalCommit.Index

	nextCurrent := current
	nextCurrent.LocalCommit = newLocalCommit

	out := c.withCurrent(nextCurrent)
	out.LocalChanges = out.LocalChanges.markIncluded(indexesOf(c.LocalChanges, pending), true, int64(newHeight))
	out.RemoteChanges = out.RemoteChanges.markIncluded(indexesOf(c.RemoteChanges, pending), true, int64(newHeight))

	return out, RevocationOut{RevokedCommitHeight: uint64(revokedHeight)}, nil
}

// RevocationOut tells the caller which of its own past local-commit heights
// it must now produce a RevokeAndAck for (by deriving that height's
// shachain secret via its Producer); the actual RevokeAndAck message is
// assembled one layer up, in updateproto, since it also needs the next
// per-commitment point, which is a key-derivation concern outside this
// package (spec.md §1 Non-goals).
type RevocationOut struct {
	RevokedCommitHeight uint64
}

// ReceiveRevocation validates the revealed per-commitment secret against
// the point previously promised for that height, records it in the
// shachain receiver, rotates RemoteCommit to the commitment that was
// waiting on this revocation, and drains every update both chains have now
// applied from further consideration. Matches spec.md §4.1
// receiveRevocation.
func ReceiveRevocation(
	c Commitments, revokedHeight uint64, secret shachain.Secret,
	expectedPoint func(secret shachain.Secret) bool,
) (Commitments, error) {

	current := c.Current()
	waiting, ok := current.RemoteState.(Waiting)
	if !ok {
		return Commitments{}, ErrNotWaitingForRevocation
	}

	if !expectedPoint(secret) {
		return Commitments{}, ErrInvalidRevocation
	}

	receiver := c.ShaChain.Receiver
	if receiver == nil {
		receiver = shachain.NewReceiver()
	}
	if err := receiver.AddNextEntry(revokedHeight, secret); err != nil {
		return Commitments{}, err
	}

	nextCurrent := current
	nextCurrent.RemoteCommit = waiting.Commit
	nextCurrent.RemoteState = Ready{}

	out := c.withCurrent(nextCurrent)
	out.ShaChain.Receiver = receiver
	out.LocalChanges = pruneResolved(out.LocalChanges, out)
	out.RemoteChanges = pruneResolved(out.RemoteChanges, out)

	return out, nil
}

// pruneResolved drops updates from log that have now been included on both
// chains and, for Fulfill/Fail/FailMalformed entries, whose parent Add has
// also been fully resolved — there is nothing further any future
// commitment build needs them for. This bounds ChangeLog growth across a
// channel's lifetime.
func pruneResolved(log ChangeLog, c Commitments) ChangeLog {
	kept := make([]Update, 0, len(log.Updates))
	for _, u := range log.Updates {
		if u.AddCommitHeightLocal == 0 || u.AddCommitHeightRemote == 0 {
			kept = append(kept, u)
			continue
		}
		if u.Kind == Add {
			if _, stillLive := c.Current().LocalCommit.Spec.Htlcs[u.HTLC.Key()]; stillLive {
				kept = append(kept, u)
				continue
			}
			if _, stillLive := c.Current().RemoteCommit.Spec.Htlcs[u.HTLC.Key()]; stillLive {
				kept = append(kept, u)
				continue
			}
			continue
		}
		continue
	}
	next := log
	next.Updates = kept
	return next
}
