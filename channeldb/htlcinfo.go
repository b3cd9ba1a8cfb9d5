package channeldb

import (
	"bytes"
	"encoding/binary"

	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/lnchannel/lnchannel/htlc"
)

// HtlcInfo is a single row of the append-only HtlcInfos table: enough to
// reconstruct and punish a revoked HTLC output without replaying a
// channel's entire update history (spec.md §3, §4.5 point 3).
type HtlcInfo struct {
	ChanID           [32]byte
	CommitmentNumber int64
	PaymentHash      htlc.PaymentHash
	CltvExpiry       uint32
}

// key is (chanID || big-endian commitment number || payment hash), so a
// cursor seek on chanID finds every HtlcInfo row for that channel in
// commitment-number order.
func (h *HtlcInfo) key() []byte {
	var buf bytes.Buffer
	buf.Write(h.ChanID[:])
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], uint64(h.CommitmentNumber))
	buf.Write(heightBuf[:])
	buf.Write(h.PaymentHash[:])
	return buf.Bytes()
}

func encodeHtlcInfo(h *HtlcInfo) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], h.CltvExpiry)
	return buf[:]
}

func decodeHtlcInfo(key, val []byte) (HtlcInfo, error) {
	var h HtlcInfo
	if len(key) != 32+8+32 || len(val) != 4 {
		return h, errMalformedHtlcInfoRow
	}
	copy(h.ChanID[:], key[:32])
	h.CommitmentNumber = int64(binary.BigEndian.Uint64(key[32:40]))
	copy(h.PaymentHash[:], key[40:72])
	h.CltvExpiry = binary.BigEndian.Uint32(val)
	return h, nil
}

// PutHtlcInfo appends an HtlcInfo row. The table is append-only during a
// channel's life; rows are only ever removed in bulk, post-close, via
// RunGC.
func (d *DB) PutHtlcInfo(h HtlcInfo) error {
	return d.Update(func(tx kvdb.RwTx) error {
		bucket, err := tx.CreateTopLevelBucket(htlcInfoBucket)
		if err != nil {
			return err
		}
		return bucket.Put(h.key(), encodeHtlcInfo(&h))
	}, func() {})
}

// FetchHtlcInfos returns every persisted HtlcInfo row for chanID, in
// commitment-number order.
func (d *DB) FetchHtlcInfos(chanID [32]byte) ([]HtlcInfo, error) {
	var infos []HtlcInfo

	err := d.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(htlcInfoBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			if len(k) < 32 || !bytes.Equal(k[:32], chanID[:]) {
				return nil
			}
			info, err := decodeHtlcInfo(k, v)
			if err != nil {
				return err
			}
			infos = append(infos, info)
			return nil
		})
	}, func() {})

	return infos, err
}

// EnqueueGCWorklist records that every HtlcInfo row for chanID with a
// commitment number below beforeCommitmentNumber is now safe to delete —
// spec.md §6's htlc_infos_to_remove(channelId, beforeCommitmentNumber)
// worklist, consulted by RunGC. Enqueued only once a channel is fully
// closed and every contract resolver for it has resolved.
func (d *DB) EnqueueGCWorklist(chanID [32]byte, beforeCommitmentNumber int64) error {
	return d.Update(func(tx kvdb.RwTx) error {
		bucket, err := tx.CreateTopLevelBucket(htlcInfoBucket)
		if err != nil {
			return err
		}
		gcBucket, err := bucket.CreateBucketIfNotExists(gcWorklistKey)
		if err != nil {
			return err
		}

		var val [8]byte
		binary.BigEndian.PutUint64(val[:], uint64(beforeCommitmentNumber))
		return gcBucket.Put(chanID[:], val[:])
	}, func() {})
}

// RunGC deletes up to maxRows HtlcInfo rows named by the GC worklist,
// across however many channels it takes to reach that bound, so a channel
// with millions of historical HTLCs never triggers a single unbounded
// delete (spec.md §6, "in bounded batches"). Returns the number of rows
// removed; a caller that gets back maxRows should call RunGC again.
func (d *DB) RunGC(maxRows int) (int, error) {
	removed := 0

	err := d.Update(func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(htlcInfoBucket)
		if bucket == nil {
			return nil
		}
		gcBucket := bucket.NestedReadWriteBucket(gcWorklistKey)
		if gcBucket == nil {
			return nil
		}

		var doneChans [][]byte
		err := gcBucket.ForEach(func(chanIDBytes, val []byte) error {
			if removed >= maxRows {
				return nil
			}

			before := int64(binary.BigEndian.Uint64(val))

			var toDelete [][]byte
			err := bucket.ForEach(func(k, _ []byte) error {
				if removed+len(toDelete) >= maxRows {
					return nil
				}
				if len(k) < 40 || !bytes.Equal(k[:32], chanIDBytes) {
					return nil
				}
				num := int64(binary.BigEndian.Uint64(k[32:40]))
				if num < before {
					toDelete = append(toDelete, append([]byte{}, k...))
				}
				return nil
			})
			if err != nil {
				return err
			}

			for _, k := range toDelete {
				if err := bucket.Delete(k); err != nil {
					return err
				}
				removed++
			}

			remaining := false
			err = bucket.ForEach(func(k, _ []byte) error {
				if len(k) < 40 || !bytes.Equal(k[:32], chanIDBytes) {
					return nil
				}
				num := int64(binary.BigEndian.Uint64(k[32:40]))
				if num < before {
					remaining = true
				}
				return nil
			})
			if err != nil {
				return err
			}
			if !remaining {
				doneChans = append(doneChans, append([]byte{}, chanIDBytes...))
			}

			return nil
		})
		if err != nil {
			return err
		}

		for _, chanIDBytes := range doneChans {
			if err := gcBucket.Delete(chanIDBytes); err != nil {
				return err
			}
		}

		return nil
	}, func() {})

	return removed, err
}
