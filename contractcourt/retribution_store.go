package contractcourt

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/kvdb"
)

var retributionBucket = []byte("contractcourt-retributions")

// RetributionStore persists retributionInfo between detecting a breach and
// fully confirming its justice transaction, so a restart mid-retribution
// doesn't lose track of funds we're entitled to.
//
// Grounded on the teacher's retributionStore (breacharbiter.go); the raw
// bolt.Tx is replaced by kvdb.RwTx/kvdb.RTx so the same backend choice
// (bbolt today, etcd for a clustered deployment) already used elsewhere in
// this module backs retributions too.
type RetributionStore struct {
	db kvdb.Backend
}

// NewRetributionStore constructs a RetributionStore backed by db.
func NewRetributionStore(db kvdb.Backend) *RetributionStore {
	return &RetributionStore{db: db}
}

// Add persists a retribution, keyed by its channel point.
func (rs *RetributionStore) Add(ret *retributionInfo) error {
	return kvdb.Update(rs.db, func(tx kvdb.RwTx) error {
		bucket, err := tx.CreateTopLevelBucket(retributionBucket)
		if err != nil {
			return err
		}

		var keyBuf bytes.Buffer
		if err := writeOutPoint(&keyBuf, &ret.chanPoint); err != nil {
			return err
		}

		var valBuf bytes.Buffer
		if err := ret.Encode(&valBuf); err != nil {
			return err
		}

		return bucket.Put(keyBuf.Bytes(), valBuf.Bytes())
	}, func() {})
}

// Remove deletes a previously-stored retribution, once its justice
// transaction has confirmed.
func (rs *RetributionStore) Remove(chanPoint *wire.OutPoint) error {
	return kvdb.Update(rs.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(retributionBucket)
		if bucket == nil {
			return errRetributionBucketMissing
		}

		var keyBuf bytes.Buffer
		if err := writeOutPoint(&keyBuf, chanPoint); err != nil {
			return err
		}

		return bucket.Delete(keyBuf.Bytes())
	}, func() {})
}

// ForAll iterates every stored retribution, invoking cb on each.
func (rs *RetributionStore) ForAll(cb func(*retributionInfo) error) error {
	return kvdb.View(rs.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(retributionBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			ret := &retributionInfo{}
			if err := ret.Decode(bytes.NewReader(v)); err != nil {
				return err
			}
			return cb(ret)
		})
	}, func() {})
}
