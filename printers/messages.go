// Package printers contains the logic for printing information
package printers

import (
	"fmt"
	"net/netip"

	"github.com/tcpping/tcpping/attempt"
)

// The message builders below are shared by every printer so the console,
// JSON and file sinks all describe an attempt with the same words.

func startMessage(target netip.AddrPort) string {
	return fmt.Sprintf("Parsed address %s", target)
}

func successMessage(a *attempt.Attempt, opt *options) string {
	if opt.ShowSourceAddress && a.SourceAddr() != "" {
		return fmt.Sprintf("Connected to %s using %s in %d ms", a.TargetStr(), a.SourceAddr(), a.RTTMillis())
	}
	return fmt.Sprintf("Connected to %s in %d ms", a.TargetStr(), a.RTTMillis())
}

func failureMessage(a *attempt.Attempt) string {
	if a.Outcome == attempt.SocketFailed {
		return fmt.Sprintf("Create socket for %s failed: %s", a.TargetStr(), a.ErrStr())
	}
	return fmt.Sprintf("Connect to %s failed: %s", a.TargetStr(), a.ErrStr())
}

// payloadMessage returns an empty string when a carries no payload exchange.
func payloadMessage(a *attempt.Attempt) string {
	p := a.Payload
	if p == nil {
		return ""
	}
	if p.Failed() {
		return fmt.Sprintf("Payload exchange with %s failed: %v", a.TargetStr(), p.Err)
	}
	return fmt.Sprintf("Read %d bytes from %s: %s", len(p.Received), a.TargetStr(), p.Text())
}

// withTimestamp prefixes msg with the attempt start time when enabled.
func withTimestamp(a *attempt.Attempt, opt *options, msg string) string {
	if !opt.ShowTimestamp {
		return msg
	}
	return fmt.Sprintf("[%s] %s", a.StartTimeFormatted(), msg)
}
