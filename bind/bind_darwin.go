//go:build darwin

package bind

import "golang.org/x/sys/unix"

const supported = true

// setsockopt pins the socket to the interface index. IPv6 sockets need the
// IPV6_BOUND_IF option at the IPPROTO_IPV6 level.
func (i *Interface) setsockopt(fd uintptr, network string) error {
	if network == "tcp6" {
		return unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_BOUND_IF, i.index)
	}
	return unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_BOUND_IF, i.index)
}
