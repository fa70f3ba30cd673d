//go:build windows

package loader

// Default returns the activation loader.
func Default(opts ...Option) Loader {
	return NewActivationLoader(opts...)
}
