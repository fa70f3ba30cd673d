//go:build windows

package registry

// NewDefault returns the system registry store. root is ignored.
func NewDefault(_ string, opts ...Option) Store {
	return NewWindowsStore(opts...)
}

// NewDefaultClasses returns the system class registrations. root is ignored.
func NewDefaultClasses(_ string) ClassStore {
	return NewWindowsClassStore()
}
