package channeldb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/lnchannel/lnchannel/commitment"
)

// Each channel is stored in a per-channel sub-bucket, keyed by ChanID; these
// keys name the blob/json/isClosed/timestamp columns spec.md §6 lists for
// the Channels table.
var (
	blobKey       = []byte("blob")
	isClosedKey   = []byte("is-closed")
	createdAtKey  = []byte("created-at")
	updatedAtKey  = []byte("updated-at")
	remoteNodeKey = []byte("remote-node-id")
)

// channelIndexJSON is the denormalized view persisted alongside the blob,
// useful only for diagnostics/indexing — never read back into a
// commitment.Commitments. Per the DESIGN NOTES rule, the blob is the only
// value source of truth.
type channelIndexJSON struct {
	ChanID      string `json:"chan_id"`
	RemoteNode  string `json:"remote_node_id,omitempty"`
	NumActive   int    `json:"num_active_commitments"`
	NumHtlcs    int    `json:"num_live_htlcs"`
	IsClosed    bool   `json:"is_closed"`
	LastUpdated string `json:"last_updated"`
}

// PutChannel persists c's current state under chanID, updating the
// denormalized JSON index and UpdatedAt. remoteNodeID is an opaque
// identifier (a serialized pubkey) used only for the index/diagnostics.
func (d *DB) PutChannel(chanID [32]byte, c commitment.Commitments,
	remoteNodeID []byte, now time.Time) error {

	return d.Update(func(tx kvdb.RwTx) error {
		top, err := tx.CreateTopLevelBucket(channelBucket)
		if err != nil {
			return err
		}

		chanBucket, err := top.CreateBucketIfNotExists(chanID[:])
		if err != nil {
			return err
		}

		var blob bytes.Buffer
		if err := EncodeCommitments(&blob, &c); err != nil {
			return err
		}
		if err := chanBucket.Put(blobKey, blob.Bytes()); err != nil {
			return err
		}

		if err := chanBucket.Put(remoteNodeKey, remoteNodeID); err != nil {
			return err
		}

		if chanBucket.Get(createdAtKey) == nil {
			if err := putTime(chanBucket, createdAtKey, now); err != nil {
				return err
			}
		}
		if err := putTime(chanBucket, updatedAtKey, now); err != nil {
			return err
		}

		idx := buildIndexJSON(chanID, remoteNodeID, c, now)
		jsonBytes, err := json.Marshal(idx)
		if err != nil {
			return err
		}
		return chanBucket.Put([]byte("json"), jsonBytes)
	}, func() {})
}

func buildIndexJSON(chanID [32]byte, remoteNodeID []byte,
	c commitment.Commitments, now time.Time) channelIndexJSON {

	numHtlcs := 0
	for _, cm := range c.Active {
		numHtlcs += len(cm.LocalCommit.Spec.Htlcs)
	}

	return channelIndexJSON{
		ChanID:      hex.EncodeToString(chanID[:]),
		RemoteNode:  hex.EncodeToString(remoteNodeID),
		NumActive:   len(c.Active),
		NumHtlcs:    numHtlcs,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

// FetchChannel loads the persisted Commitments for chanID.
func (d *DB) FetchChannel(chanID [32]byte) (commitment.Commitments, error) {
	var c commitment.Commitments

	err := d.View(func(tx kvdb.RTx) error {
		top := tx.ReadBucket(channelBucket)
		if top == nil {
			return ErrChannelNotFound
		}
		chanBucket := top.NestedReadBucket(chanID[:])
		if chanBucket == nil {
			return ErrChannelNotFound
		}

		blob := chanBucket.Get(blobKey)
		if blob == nil {
			return ErrChannelNotFound
		}

		decoded, err := DecodeCommitments(bytes.NewReader(blob))
		if err != nil {
			return err
		}
		c = decoded
		return nil
	}, func() {})

	return c, err
}

// MarkChannelClosed flips the isClosed flag for chanID. The blob and
// HtlcInfo rows are left in place; GC of the latter happens separately,
// via EnqueueGCWorklist/RunGC, in bounded batches.
func (d *DB) MarkChannelClosed(chanID [32]byte, now time.Time) error {
	return d.Update(func(tx kvdb.RwTx) error {
		top := tx.ReadWriteBucket(channelBucket)
		if top == nil {
			return ErrChannelNotFound
		}
		chanBucket := top.NestedReadWriteBucket(chanID[:])
		if chanBucket == nil {
			return ErrChannelNotFound
		}

		if err := chanBucket.Put(isClosedKey, []byte{1}); err != nil {
			return err
		}
		return putTime(chanBucket, updatedAtKey, now)
	}, func() {})
}

// IsChannelClosed reports whether chanID has been marked closed.
func (d *DB) IsChannelClosed(chanID [32]byte) (bool, error) {
	var closed bool
	err := d.View(func(tx kvdb.RTx) error {
		top := tx.ReadBucket(channelBucket)
		if top == nil {
			return ErrChannelNotFound
		}
		chanBucket := top.NestedReadBucket(chanID[:])
		if chanBucket == nil {
			return ErrChannelNotFound
		}
		closed = chanBucket.Get(isClosedKey) != nil
		return nil
	}, func() {})
	return closed, err
}

func putTime(bucket kvdb.RwBucket, key []byte, t time.Time) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.Unix()))
	return bucket.Put(key, buf[:])
}
