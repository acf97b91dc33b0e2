// Package lifecycle holds the process-wide drain flag consulted by the
// health handler.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown records that the process received SIGTERM/SIGINT and is
// draining. The health endpoint reports 503 shutting-down while set.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining and should not
// receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
