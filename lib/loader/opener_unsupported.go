//go:build !((linux || darwin || freebsd) && cgo)

package loader

// DefaultOpener returns an opener that always fails with ErrUnsupported.
func DefaultOpener() Opener {
	return OpenerFunc(func(string) (Library, error) {
		return nil, ErrUnsupported
	})
}
