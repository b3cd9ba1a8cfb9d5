package channeldb

import "github.com/go-errors/errors"

var (
	// ErrNoChanDBExists names an on-disk database that hasn't been
	// created/migrated yet; no function in this package returns it.
	ErrNoChanDBExists = errors.New("channeldb: database has not yet been created")

	// ErrChannelNotFound is returned when a channel lookup misses.
	ErrChannelNotFound = errors.New("channeldb: channel not found")

	// ErrMetaNotFound is returned when the meta bucket itself is missing —
	// only possible on a corrupted or pre-migration database.
	ErrMetaNotFound = errors.New("channeldb: unable to locate meta information")

	// ErrNoHtlcInfos names a channel with no persisted HtlcInfo rows; no
	// function in this package returns it (FetchHtlcInfos reports that
	// case as an empty slice and a nil error).
	ErrNoHtlcInfos = errors.New("channeldb: channel has no persisted htlc infos")

	// errUnknownRemoteState is returned when decoding a RemoteCommitState
	// tag channeldb doesn't recognize — a newer writer than reader.
	errUnknownRemoteState = errors.New("channeldb: unknown remote commit state tag")

	// errMalformedHtlcInfoRow is returned when an HtlcInfo key/value pair
	// doesn't match the fixed-width shape PutHtlcInfo writes.
	errMalformedHtlcInfoRow = errors.New("channeldb: malformed htlc info row")
)
