package channeldb

import (
	"encoding/binary"

	"github.com/lightningnetwork/lnd/kvdb"
)

var (
	channelBucket  = []byte("channels")
	htlcInfoBucket = []byte("htlc-infos")
	gcWorklistKey  = []byte("gc-worklist")
	metaBucket     = []byte("channeldb-meta")
	dbVersionKey   = []byte("version")
)

// migration mutates a prior outdated version of the database into the next
// one. Grounded on the teacher's migration/version list (channeldb/db.go),
// adapted to kvdb so the same codebase runs against either bbolt or an etcd
// cluster.
type migration func(tx kvdb.RwTx) error

type version struct {
	number    uint32
	migration migration
}

// dbVersions lists every schema version in order. The base version requires
// no migration; later versions append their migration function here as the
// persisted shapes evolve.
var dbVersions = []version{
	{number: 0, migration: nil},
}

func latestDBVersion() uint32 {
	return dbVersions[len(dbVersions)-1].number
}

// DB is the persistent store backing one node's set of channels: the
// Channels table (blob + denormalized index), the append-only HtlcInfos
// table, and the post-close GC worklist (spec.md §6).
type DB struct {
	kvdb.Backend
}

// Open wraps an already-opened kvdb.Backend, creating the top-level buckets
// and running any pending migrations. Which concrete backend (bbolt for a
// single node, etcd for a clustered deployment) gets opened is a deployment
// decision the caller makes — channeldb never calls kvdb.Create itself,
// unlike the teacher's Open(dbPath), since picking a backend driver is
// outside a per-channel library's scope (spec.md §1).
func Open(backend kvdb.Backend) (*DB, error) {
	db := &DB{Backend: backend}

	if err := db.Update(func(tx kvdb.RwTx) error {
		if _, err := tx.CreateTopLevelBucket(channelBucket); err != nil {
			return err
		}
		if _, err := tx.CreateTopLevelBucket(htlcInfoBucket); err != nil {
			return err
		}
		if _, err := tx.CreateTopLevelBucket(metaBucket); err != nil {
			return err
		}
		return nil
	}, func() {}); err != nil {
		return nil, err
	}

	if err := db.syncVersions(); err != nil {
		return nil, err
	}

	return db, nil
}

func (d *DB) syncVersions() error {
	return d.Update(func(tx kvdb.RwTx) error {
		meta := tx.ReadWriteBucket(metaBucket)
		if meta == nil {
			return ErrMetaNotFound
		}

		raw := meta.Get(dbVersionKey)
		current := uint32(0)
		if raw != nil {
			current = binary.BigEndian.Uint32(raw)
		}

		for _, v := range dbVersions {
			if v.number <= current || v.migration == nil {
				continue
			}
			log.Infof("applying channeldb migration to version %d", v.number)
			if err := v.migration(tx); err != nil {
				return err
			}
			current = v.number
		}

		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], latestDBVersion())
		return meta.Put(dbVersionKey, buf[:])
	}, func() {})
}

// Wipe deletes every channel-related bucket, atomically. Used only by tests
// and by an operator explicitly resetting local state.
func (d *DB) Wipe() error {
	return d.Update(func(tx kvdb.RwTx) error {
		for _, bucket := range [][]byte{channelBucket, htlcInfoBucket, metaBucket} {
			if err := tx.DeleteTopLevelBucket(bucket); err != nil &&
				err != kvdb.ErrBucketNotFound {
				return err
			}
		}
		return nil
	}, func() {})
}
