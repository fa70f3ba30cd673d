//go:build !windows

package registry

// NewDefault returns the platform store: a FileStore at root.
func NewDefault(root string, opts ...Option) Store {
	return NewFileStore(root, opts...)
}

// NewDefaultClasses returns the platform class store: a FileClassStore at root.
func NewDefaultClasses(root string) ClassStore {
	return NewFileClassStore(root)
}
