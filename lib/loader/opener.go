package loader

import "errors"

// ErrUnsupported is returned by the default opener on platforms without
// loadable module support.
var ErrUnsupported = errors.New("loader: loadable modules not supported on this platform")

// Library is an opened module.
type Library interface {
	Lookup(symbol string) (any, error)
	Close() error
}

// Opener opens modules by path.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Library, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}
