package channelactor

import "github.com/btcsuite/btclog"

// log is this package's subsystem logger. It starts out disabled; the
// daemon wires a real backend in with UseLogger during startup, the same
// way every other subsystem here is wired (see the *.UseLogger calls a
// top-level daemon package makes for lnwallet, htlcswitch, channeldb, and
// friends).
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the package-level logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
