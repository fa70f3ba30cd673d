//go:build !windows

package loader

// Default returns the symbol loader.
func Default(opts ...Option) Loader {
	return NewSymbolLoader(opts...)
}
