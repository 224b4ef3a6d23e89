//go:build !linux && !darwin

package bind

const supported = false

func (i *Interface) setsockopt(_ uintptr, _ string) error {
	return ErrUnsupportedPlatform
}
