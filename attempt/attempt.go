// Package attempt describes the outcome of a single TCP probe.
//
// An Attempt is created by a pinger for one socket, handed to a printer and
// then dropped. Nothing in this package accumulates attempts.
package attempt

import (
	"fmt"
	"net"
	"math"
	"net/netip"
	"strings"
	"time"
	"unicode/utf8"
)

// Outcome classifies how an attempt ended.
type Outcome uint8

const (
	// Connected means the handshake completed within the timeout.
	Connected Outcome = iota
	// ConnectFailed covers refused, unreachable and timed out handshakes.
	ConnectFailed
	// SocketFailed means the OS refused to allocate a socket.
	SocketFailed
	// BindFailed means the socket could not be pinned to its local endpoint.
	BindFailed
)

func (o Outcome) String() string {
	switch o {
	case Connected:
		return "connected"
	case ConnectFailed:
		return "connect failed"
	case SocketFailed:
		return "socket failed"
	case BindFailed:
		return "bind failed"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// MaxResponseSize is the largest payload response read per attempt.
const MaxResponseSize = 1024

// Attempt is one socket creation, bind, connect and optional payload exchange.
type Attempt struct {
	Seq       uint
	Hostname  string // empty when the target was given as an IP literal
	Target    netip.AddrPort
	LocalAddr net.Addr

	StartTime time.Time
	RTT       time.Duration

	Outcome Outcome
	Err     error

	// Payload is nil unless a payload was configured and the connect succeeded.
	Payload *PayloadExchange
}

// PayloadExchange is the result of writing the payload and reading the reply.
type PayloadExchange struct {
	Sent     int
	Received []byte
	Err      error
}

// Succeeded reports whether the handshake completed.
func (a *Attempt) Succeeded() bool {
	return a.Outcome == Connected && a.Err == nil
}

// TargetStr returns the resolved target as ip:port.
func (a *Attempt) TargetStr() string {
	return a.Target.String()
}

// SourceAddr returns the local address used for the connection, if known.
func (a *Attempt) SourceAddr() string {
	if a.LocalAddr == nil {
		return ""
	}
	return a.LocalAddr.String()
}

// RTTMillis returns the handshake time in whole milliseconds.
func (a *Attempt) RTTMillis() int64 {
	return a.RTT.Milliseconds()
}

// LatencyMs returns the handshake time in milliseconds with sub-millisecond precision.
func (a *Attempt) LatencyMs() float32 {
	return NanoToMillisecond(a.RTT.Nanoseconds())
}

// RTTStr returns the latency with 3 decimal points.
func (a *Attempt) RTTStr() string {
	return fmt.Sprintf("%.3f", a.LatencyMs())
}

// StartTimeFormatted returns the attempt start as a local date time.
func (a *Attempt) StartTimeFormatted() string {
	return a.StartTime.Format(time.DateTime)
}

// ErrStr returns the error text or an empty string.
func (a *Attempt) ErrStr() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

// Failed reports whether the write or read after connect failed.
func (p *PayloadExchange) Failed() bool {
	return p.Err != nil
}

// Text renders the reply as UTF-8, replacing invalid sequences with U+FFFD.
func (p *PayloadExchange) Text() string {
	return LossyString(p.Received)
}

// LossyString converts b to a valid UTF-8 string. Invalid byte sequences are
// replaced by the Unicode replacement character instead of failing.
// Each maximal invalid subpart becomes one replacement character, so two
// stray bytes yield two of them while a truncated sequence yields one.
func LossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 2*utf8.UTFMax)

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidPrefixLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}

	return sb.String()
}

// invalidPrefixLen returns how many bytes of b form the longest prefix of a
// well-formed sequence, at least one.
func invalidPrefixLen(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)

	var n int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		n = 2
	case c == 0xE0:
		n, lo = 3, 0xA0
	case c == 0xED:
		n, hi = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		n = 3
	case c == 0xF0:
		n, lo = 4, 0x90
	case c >= 0xF1 && c <= 0xF3:
		n = 4
	case c == 0xF4:
		n, hi = 4, 0x8F
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(b); i++ {
		if b[i] < lo || b[i] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}

	return i
}

// NanoToMillisecond returns an amount of milliseconds from nanoseconds.
// Using duration.Milliseconds() is not an option, because it drops
// decimal points, returning an int.
func NanoToMillisecond(nano int64) float32 {
	return float32(nano) / float32(time.Millisecond)
}

// MaxSeconds is the largest number of seconds a time.Duration can hold.
const MaxSeconds = float64(math.MaxInt64) / float64(time.Second)

// ValidSeconds reports whether seconds is a finite, non-negative value that
// fits in a time.Duration.
func ValidSeconds(seconds float64) bool {
	return !math.IsNaN(seconds) && !math.IsInf(seconds, 0) && seconds >= 0 && seconds <= MaxSeconds
}

// SecondsToDuration returns the corresponding duration from seconds expressed with a float.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(1000*seconds) * time.Millisecond
}
