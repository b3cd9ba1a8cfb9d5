package lnwire

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// MilliSatoshi are the native unit of the Lightning Network. 1000 MilliSatoshi
// is equal to 1 Satoshi. Active channels operate entirely in terms of
// MilliSatoshi, allowing for sub-satoshi precision on balances and HTLC
// amounts without rounding error accumulating across many updates.
type MilliSatoshi uint64

// NewMSatFromSatoshis creates a new MilliSatoshi instance from a target
// amount of Satoshis.
func NewMSatFromSatoshis(sat btcutil.Amount) MilliSatoshi {
	return MilliSatoshi(sat * 1000)
}

// ToSatoshis converts a given amount in MilliSatoshi to its corresponding
// value denominated in satoshis, truncating any sub-satoshi remainder.
func (m MilliSatoshi) ToSatoshis() btcutil.Amount {
	return btcutil.Amount(m / 1000)
}

// String returns the MilliSatoshi amount as a human readable string.
func (m MilliSatoshi) String() string {
	return fmt.Sprintf("%d mSAT", uint64(m))
}
