// Package bind pins outbound sockets to a named local network interface.
//
// Pinning has no portable expression: Linux takes the interface name through
// SO_BINDTODEVICE while Darwin takes the interface index through IP_BOUND_IF
// and IPV6_BOUND_IF. Other platforms are rejected with ErrUnsupportedPlatform
// instead of silently falling back to the default route.
package bind

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"runtime"
	"syscall"
)

// ErrUnsupportedPlatform is returned when the OS offers no way to pin a socket
// to an interface.
var ErrUnsupportedPlatform = errors.New("binding to an interface is not supported on " + runtime.GOOS)

// Error reports a failure to pin a socket to its local endpoint.
type Error struct {
	Op        string // lookup, setsockopt or bind
	Interface string
	Err       error
}

func (e *Error) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Interface, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Interface is a network interface that sockets can be pinned to.
type Interface struct {
	name  string
	index int
}

// New looks up the interface by name. The lookup happens once so that an
// unknown name fails before any socket is created.
func New(name string) (*Interface, error) {
	if !supported {
		return nil, fmt.Errorf("interface %s: %w", name, ErrUnsupportedPlatform)
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, &Error{Op: "lookup", Interface: name, Err: err}
	}

	return &Interface{name: iface.Name, index: iface.Index}, nil
}

// Name returns the interface name.
func (i *Interface) Name() string {
	return i.name
}

// Index returns the interface index.
func (i *Interface) Index() int {
	return i.index
}

// Control pins the socket behind c to the interface. It matches the signature
// of net.Dialer.Control, which runs it after the socket is created and before
// it connects. network is "tcp4" or "tcp6".
func (i *Interface) Control(network, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = i.setsockopt(fd, network)
	})
	if err == nil {
		err = sockErr
	}
	if err != nil {
		return &Error{Op: "setsockopt", Interface: i.name, Err: err}
	}
	return nil
}

// Wildcard returns the unspecified local address of addr's family with port 0,
// leaving the choice of route and local port to the OS.
func Wildcard(addr netip.Addr) *net.TCPAddr {
	if addr.Unmap().Is4() {
		return &net.TCPAddr{IP: net.IPv4zero}
	}
	return &net.TCPAddr{IP: net.IPv6unspecified}
}
