// Package tcpping probes a single TCP service by repeatedly completing the
// three-way handshake and reporting every attempt on its own.
package tcpping

import (
	"context"
	"net/netip"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/pingers"
)

var (
	// List of compile time checks for all pingers
	_ Pinger = (*pingers.TCPPinger)(nil)
)

// Pinger performs one probe against a fixed target.
// Ping must not keep any socket open once it returns.
type Pinger interface {
	Ping(ctx context.Context) attempt.Attempt
	Target() netip.AddrPort
}
