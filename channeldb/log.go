package channeldb

import "github.com/btcsuite/btclog"

var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the package-level logger used by channeldb.
func UseLogger(logger btclog.Logger) {
	log = logger
}
