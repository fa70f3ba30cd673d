//go:build windows

package registry

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/windows/registry"

	"github.com/snowmerak/asio.go/lib/guid"
)

const (
	asioKey   = `SOFTWARE\ASIO`
	clsidKey  = `CLSID`
	serverKey = `InprocServer32`
)

// WindowsStore reads HKLM\SOFTWARE\ASIO. Each entry is a subkey holding the
// values CLSID and Description.
type WindowsStore struct {
	options
}

// NewWindowsStore returns the system registry store.
func NewWindowsStore(opts ...Option) *WindowsStore {
	return &WindowsStore{options: buildOptions(opts)}
}

func valueName(key string) string {
	switch key {
	case KeyLocator:
		return "CLSID"
	case KeyDescription:
		return "Description"
	default:
		return key
	}
}

// Enumerate implements Store.
func (s *WindowsStore) Enumerate(visit VisitFunc) error {
	base, err := registry.OpenKey(registry.LOCAL_MACHINE, asioKey, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoStore, err)
	}
	defer base.Close()

	names, err := base.ReadSubKeyNames(-1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoStore, err)
	}
	for _, name := range names {
		k, err := registry.OpenKey(base, name, registry.QUERY_VALUE)
		if err != nil {
			s.logger.Debug("skipping registry entry", "name", name, "error", err)
			continue
		}
		locator, _, err := k.GetStringValue("CLSID")
		if err != nil || locator == "" {
			k.Close()
			s.logger.Debug("skipping registry entry", "name", name, "error", err)
			continue
		}
		description, _, _ := k.GetStringValue("Description")
		k.Close()
		if !visit(name, locator, description) {
			return nil
		}
	}
	return nil
}

// GetParameter implements Store.
func (s *WindowsStore) GetParameter(name, key string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, asioKey+`\`+name, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	defer k.Close()
	if key == "" {
		return "", nil
	}

	value, _, err := k.GetStringValue(valueName(key))
	if errors.Is(err, registry.ErrNotExist) {
		return "", fmt.Errorf("%s/%s: %w", name, key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", name, key, err)
	}
	if len(value) > maxValueLen {
		value = value[:maxValueLen]
	}
	return value, nil
}

// Register implements Store.
func (s *WindowsStore) Register(name, locator, description string) error {
	if err := validName(name); err != nil {
		return err
	}
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, asioKey+`\`+name, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	defer k.Close()
	if description != "" {
		if err := k.SetStringValue("Description", description); err != nil {
			return fmt.Errorf("failed to write description of %s: %w", name, err)
		}
	}
	if err := k.SetStringValue("CLSID", locator); err != nil {
		return fmt.Errorf("failed to write locator of %s: %w", name, err)
	}
	return nil
}

// Unregister implements Store.
func (s *WindowsStore) Unregister(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	path := asioKey + `\` + name
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.SET_VALUE|registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	empty, err := clearEntry(k)
	k.Close()
	if err != nil {
		return fmt.Errorf("failed to remove entry %s: %w", name, err)
	}
	if !empty {
		return nil
	}
	if err := registry.DeleteKey(registry.LOCAL_MACHINE, path); err != nil {
		return fmt.Errorf("failed to remove entry %s: %w", name, err)
	}
	return nil
}

// entryKey is the part of registry.Key that clearEntry uses.
type entryKey interface {
	DeleteValue(name string) error
	ReadValueNames(n int) ([]string, error)
	ReadSubKeyNames(n int) ([]string, error)
}

// clearEntry deletes the values Register writes and reports whether the
// key holds nothing else. A key that cannot be listed is never reported
// empty.
func clearEntry(k entryKey) (bool, error) {
	for _, name := range []string{"CLSID", "Description"} {
		if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return false, err
		}
	}
	values, err := k.ReadValueNames(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	subkeys, err := k.ReadSubKeyNames(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return len(values) == 0 && len(subkeys) == 0, nil
}

// WindowsClassStore reads and writes HKCR\CLSID.
type WindowsClassStore struct{}

// NewWindowsClassStore returns the system class store.
func NewWindowsClassStore() *WindowsClassStore {
	return &WindowsClassStore{}
}

// RegisterClass implements ClassStore.
func (WindowsClassStore) RegisterClass(id guid.GUID, name, path string) error {
	classPath := clsidKey + `\` + id.String()
	k, _, err := registry.CreateKey(registry.CLASSES_ROOT, classPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create class %s: %w", id, err)
	}
	err = k.SetStringValue("", name)
	k.Close()
	if err != nil {
		return fmt.Errorf("failed to write class %s: %w", id, err)
	}

	srv, _, err := registry.CreateKey(registry.CLASSES_ROOT, classPath+`\`+serverKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create server of class %s: %w", id, err)
	}
	defer srv.Close()
	if err := srv.SetStringValue("", path); err != nil {
		return fmt.Errorf("failed to write server of class %s: %w", id, err)
	}
	if err := srv.SetStringValue("ThreadingModel", "Both"); err != nil {
		return fmt.Errorf("failed to write threading model of class %s: %w", id, err)
	}
	return nil
}

// UnregisterClass implements ClassStore.
func (WindowsClassStore) UnregisterClass(id guid.GUID) error {
	classPath := clsidKey + `\` + id.String()
	if err := registry.DeleteKey(registry.CLASSES_ROOT, classPath+`\`+serverKey); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("failed to remove class %s: %w", id, err)
	}
	if err := registry.DeleteKey(registry.CLASSES_ROOT, classPath); err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to remove class %s: %w", id, err)
	}
	return nil
}

// ServerPath implements ClassStore.
func (WindowsClassStore) ServerPath(id guid.GUID) (string, error) {
	k, err := registry.OpenKey(registry.CLASSES_ROOT, clsidKey+`\`+id.String()+`\`+serverKey, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("class %s: %w", id, ErrNotFound)
	}
	defer k.Close()
	path, _, err := k.GetStringValue("")
	if err != nil || path == "" {
		return "", fmt.Errorf("class %s: %w", id, ErrNotFound)
	}
	return path, nil
}
