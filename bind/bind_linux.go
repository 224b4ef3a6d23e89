//go:build linux

package bind

import "golang.org/x/sys/unix"

const supported = true

// setsockopt hands the raw interface name to SO_BINDTODEVICE.
func (i *Interface) setsockopt(fd uintptr, _ string) error {
	return unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, i.name)
}
