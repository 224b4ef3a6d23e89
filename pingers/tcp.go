// Package pingers implements protocol-specific ping functionality for network connectivity testing.
package pingers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"os"
	"syscall"
	"time"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/bind"
	"github.com/tcpping/tcpping/option"
)

var (
	ErrSocket  = errors.New("create socket")
	ErrConnect = errors.New("connect")
	ErrPayload = errors.New("payload exchange")
)

// Binder pins a freshly created socket to a local interface before it
// connects. *bind.Interface implements it.
type Binder interface {
	Control(network, address string, c syscall.RawConn) error
}

var _ Binder = (*bind.Interface)(nil)

// TCPPinger implements the Pinger interface for TCP connectivity testing.
// Every call to Ping uses a new socket that is closed before Ping returns.
type TCPPinger struct {
	target      netip.AddrPort
	timeout     time.Duration
	readTimeout time.Duration
	binder      Binder
	payload     []byte
}

// DefaultTimeout bounds the handshake when no timeout is configured.
const DefaultTimeout = 4 * time.Second

const tcp = "tcp"

type TCPOptions = option.Option[TCPPinger]

// NewTCPPinger creates a new TCP pinger for the target with optional configuration.
func NewTCPPinger(target netip.AddrPort, opts ...TCPOptions) *TCPPinger {
	return option.Apply(&TCPPinger{
		target:  netip.AddrPortFrom(target.Addr().Unmap(), target.Port()),
		timeout: DefaultTimeout,
	}, opts...)
}

// WithTimeout configures the handshake timeout. Zero means no timeout.
func WithTimeout(timeout time.Duration) TCPOptions {
	return func(t *TCPPinger) {
		t.timeout = timeout
	}
}

// WithBinder pins every socket to an interface instead of binding it to the
// wildcard address.
func WithBinder(b Binder) TCPOptions {
	return func(t *TCPPinger) {
		t.binder = b
	}
}

// WithPayload sends payload after each successful connect and reads the reply.
// A non-nil empty payload still triggers the read.
func WithPayload(payload []byte) TCPOptions {
	return func(t *TCPPinger) {
		t.payload = payload
	}
}

// WithReadTimeout bounds the payload write and read. It defaults to the handshake timeout.
func WithReadTimeout(timeout time.Duration) TCPOptions {
	return func(t *TCPPinger) {
		t.readTimeout = timeout
	}
}

// Target implements Pinger.
func (t *TCPPinger) Target() netip.AddrPort {
	return t.target
}

func (t *TCPPinger) dialer() *net.Dialer {
	d := &net.Dialer{Timeout: t.timeout}

	if t.binder != nil {
		d.Control = t.binder.Control
	} else {
		d.LocalAddr = bind.Wildcard(t.target.Addr())
	}

	return d
}

// Ping implements Pinger. It creates a socket, binds it, connects with the
// handshake timeout and, when configured, exchanges the payload.
func (t *TCPPinger) Ping(ctx context.Context) attempt.Attempt {
	a := attempt.Attempt{
		Target:    t.target,
		StartTime: time.Now(),
	}

	conn, err := t.dialer().DialContext(ctx, tcp, t.target.String())
	a.RTT = time.Since(a.StartTime)

	if err != nil {
		a.Outcome, a.Err = classify(err)
		return a
	}
	defer conn.Close()

	a.Outcome = attempt.Connected
	a.LocalAddr = conn.LocalAddr()

	if t.payload != nil {
		a.Payload = t.exchange(conn)
	}

	return a
}

// exchange writes the whole payload and performs a single read of up to
// attempt.MaxResponseSize bytes. A peer that closes without replying yields
// an empty response rather than an error.
func (t *TCPPinger) exchange(conn net.Conn) *attempt.PayloadExchange {
	p := &attempt.PayloadExchange{}

	timeout := t.readTimeout
	if timeout == 0 {
		timeout = t.timeout
	}
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			p.Err = &probeError{kind: ErrPayload, err: err}
			return p
		}
	}

	n, err := conn.Write(t.payload)
	p.Sent = n
	if err != nil {
		p.Err = &probeError{kind: ErrPayload, err: err}
		return p
	}

	buf := make([]byte, attempt.MaxResponseSize)
	n, err = conn.Read(buf)
	p.Received = buf[:n]
	if err != nil && !errors.Is(err, io.EOF) {
		p.Err = &probeError{kind: ErrPayload, err: err}
	}

	return p
}

// classify maps a dial error onto the attempt outcome.
func classify(err error) (attempt.Outcome, error) {
	var bindErr *bind.Error
	if errors.As(err, &bindErr) {
		return attempt.BindFailed, bindErr
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		switch sysErr.Syscall {
		case "socket":
			return attempt.SocketFailed, &probeError{kind: ErrSocket, err: err}
		case "bind":
			return attempt.BindFailed, &bind.Error{Op: "bind", Err: sysErr.Err}
		}
	}

	return attempt.ConnectFailed, &probeError{kind: ErrConnect, err: err}
}

// probeError tags an OS error with its stage while printing only the OS
// description, e.g. "connection refused" or "i/o timeout".
type probeError struct {
	kind error
	err  error
}

func (e *probeError) Error() string {
	var sysErr *os.SyscallError
	if errors.As(e.err, &sysErr) {
		return sysErr.Err.Error()
	}

	var opErr *net.OpError
	if errors.As(e.err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}

	return e.err.Error()
}

func (e *probeError) Unwrap() []error {
	return []error{e.kind, e.err}
}
