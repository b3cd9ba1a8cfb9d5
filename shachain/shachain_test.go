package shachain

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randSeed(t *testing.T) Secret {
	t.Helper()
	var s Secret
	_, err := rand.Read(s[:])
	require.NoError(t, err)
	return s
}

// TestProducerReceiverRoundTrip mirrors elkrem's own sender/receiver
// round-trip test: every secret the Producer reveals, in increasing
// height order, must be accepted by the Receiver and reproduce the exact
// same value on lookup.
func TestProducerReceiverRoundTrip(t *testing.T) {
	producer := NewProducer(randSeed(t))
	receiver := NewReceiver()

	const numCommitments = 10_000
	for height := uint64(0); height < numCommitments; height++ {
		secret, err := producer.AtHeight(height)
		require.NoError(t, err)

		err = receiver.AddNextEntry(height, secret)
		require.NoError(t, err)

		got, err := receiver.LookupSecret(height)
		require.NoError(t, err)
		require.Equal(t, secret, got)
	}

	for height := uint64(0); height < numCommitments; height += 777 {
		want, err := producer.AtHeight(height)
		require.NoError(t, err)

		got, err := receiver.LookupSecret(height)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

// TestReceiverRejectsInconsistentSecret checks that a secret which fails to
// reproduce an already-stored descendant is rejected rather than silently
// accepted, the failure mode spec.md §4.3 calls fatal.
func TestReceiverRejectsInconsistentSecret(t *testing.T) {
	producer := NewProducer(randSeed(t))
	receiver := NewReceiver()

	s0, err := producer.AtHeight(0)
	require.NoError(t, err)
	require.NoError(t, receiver.AddNextEntry(0, s0))

	_, err = producer.AtHeight(1)
	require.NoError(t, err)

	garbage := randSeed(t)
	err = receiver.AddNextEntry(1, garbage)
	require.Error(t, err)
}

// TestReceiverEncodeDecode checks that a Receiver's state survives
// serialization, needed for channeldb persistence across restarts.
func TestReceiverEncodeDecode(t *testing.T) {
	producer := NewProducer(randSeed(t))
	receiver := NewReceiver()

	for height := uint64(0); height < 50; height++ {
		secret, err := producer.AtHeight(height)
		require.NoError(t, err)
		require.NoError(t, receiver.AddNextEntry(height, secret))
	}

	blob, err := receiver.Encode()
	require.NoError(t, err)

	decoded, err := DecodeReceiver(blob)
	require.NoError(t, err)

	for height := uint64(0); height < 50; height += 7 {
		want, err := receiver.LookupSecret(height)
		require.NoError(t, err)
		got, err := decoded.LookupSecret(height)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestCommitmentIndexDescends(t *testing.T) {
	require.Equal(t, rootIndex, commitmentIndex(0))
	require.Equal(t, rootIndex-1, commitmentIndex(1))
}
