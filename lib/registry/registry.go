// Package registry discovers installed device modules.
//
// A store maps a unique device name to a locator (a class identity on the
// activation path, a module path on the symbol path) and a description. The
// store is read on every call; nothing is cached in-process.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snowmerak/asio.go/lib/guid"
)

// Parameter keys understood by every store.
const (
	KeyLocator     = "driver"
	KeyDescription = "description"
)

var (
	// ErrNotFound is returned when an entry or parameter does not exist.
	ErrNotFound = errors.New("registry: not found")
	// ErrNoStore is returned when the backing store cannot be opened.
	ErrNoStore = errors.New("registry: store unavailable")
	// ErrInvalidName is returned for names that cannot be stored.
	ErrInvalidName = errors.New("registry: invalid name")
)

// Entry is one registered device.
type Entry struct {
	Name        string `json:"name" yaml:"name"`
	Locator     string `json:"locator" yaml:"locator"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// VisitFunc receives one entry per call. Returning false stops enumeration.
type VisitFunc func(name, locator, description string) bool

// Store is a device registry.
type Store interface {
	// Enumerate calls visit for every well-formed entry in store order.
	// Stopping early is not an error. A store that cannot be opened is
	// reported as ErrNoStore, which differs from an empty store.
	Enumerate(visit VisitFunc) error
	// GetParameter returns the first line of a parameter of an entry. An
	// empty key checks that the entry exists and returns "". Callers that
	// only need to know whether a key exists can ignore the value.
	GetParameter(name, key string) (string, error)
	// Register creates or overwrites the entry.
	Register(name, locator, description string) error
	// Unregister removes what Register wrote. Data added by others is left
	// in place, and so is the entry if it still holds such data.
	Unregister(name string) error
}

// Lookup resolves a name to its entry.
func Lookup(s Store, name string) (Entry, error) {
	locator, err := s.GetParameter(name, KeyLocator)
	if err != nil {
		return Entry{}, err
	}
	if locator == "" {
		return Entry{}, fmt.Errorf("%s: empty locator: %w", name, ErrNotFound)
	}
	description, err := s.GetParameter(name, KeyDescription)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	return Entry{Name: name, Locator: locator, Description: description}, nil
}

// FindName returns the first name registered for id. Entries whose locator
// is not an identity are skipped.
func FindName(s Store, id guid.GUID) (string, error) {
	var found string
	err := s.Enumerate(func(name, locator, _ string) bool {
		g, err := guid.Parse(locator)
		if err != nil {
			return true
		}
		if g == id {
			found = name
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return found, nil
}

// List returns a snapshot of all entries.
func List(s Store) ([]Entry, error) {
	var entries []Entry
	err := s.Enumerate(func(name, locator, description string) bool {
		entries = append(entries, Entry{Name: name, Locator: locator, Description: description})
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func validName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ClassStore records where the module serving a class identity lives.
// The activation loader resolves identities through it.
type ClassStore interface {
	RegisterClass(id guid.GUID, name, path string) error
	UnregisterClass(id guid.GUID) error
	// ServerPath returns the module path registered for id, or ErrNotFound.
	ServerPath(id guid.GUID) (string, error)
}
