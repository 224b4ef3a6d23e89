// Package option holds the functional option type shared by the resolver,
// pinger, prober and printers.
package option

// Option configures a value of type T.
type Option[T any] func(*T)

// Apply runs opts against v in order, skipping nil options, and returns v.
func Apply[T any](v *T, opts ...Option[T]) *T {
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}
