package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/snowmerak/asio.go/lib/guid"
)

// DefaultRoot is the directory the file store reads when no root is given.
const DefaultRoot = "/etc/cwASIO"

// maxValueLen bounds how much of a parameter file is read.
const maxValueLen = 1023

// Option configures a file backed store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report skipped entries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FileStore keeps one directory per entry below a root directory:
//
//	<root>/<name>/driver       first line is the locator
//	<root>/<name>/description  first line is the description
type FileStore struct {
	root string
	options
}

// NewFileStore returns a store rooted at root, or at DefaultRoot if root is empty.
func NewFileStore(root string, opts ...Option) *FileStore {
	if root == "" {
		root = DefaultRoot
	}
	return &FileStore{root: root, options: buildOptions(opts)}
}

// Root returns the store directory.
func (s *FileStore) Root() string {
	return s.root
}

// Enumerate implements Store.
func (s *FileStore) Enumerate(visit VisitFunc) error {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoStore, err)
	}

	for _, de := range dirents {
		name := de.Name()
		if validName(name) != nil {
			continue
		}
		locator, err := readFirstLine(filepath.Join(s.root, name, KeyLocator))
		if err != nil || locator == "" {
			// A writer may be halfway through creating or removing this entry.
			s.logger.Debug("skipping registry entry", "name", name, "error", err)
			continue
		}
		description, _ := readFirstLine(filepath.Join(s.root, name, KeyDescription))
		if !visit(name, locator, description) {
			return nil
		}
	}
	return nil
}

// GetParameter implements Store.
func (s *FileStore) GetParameter(name, key string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, name)
	if key == "" {
		st, err := os.Stat(dir)
		if err != nil || !st.IsDir() {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", nil
	}
	if err := validName(key); err != nil {
		return "", err
	}

	value, err := readFirstLine(filepath.Join(dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s/%s: %w", name, key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", name, key, err)
	}
	return value, nil
}

// Register implements Store. The entry directory is created before its
// parameter files so readers never see metadata without an entry.
func (s *FileStore) Register(name, locator, description string) error {
	if err := validName(name); err != nil {
		return err
	}
	dir := filepath.Join(s.root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if description != "" {
		if err := writeLine(filepath.Join(dir, KeyDescription), description); err != nil {
			return err
		}
	}
	// The locator goes last: it is what makes the entry visible.
	return writeLine(filepath.Join(dir, KeyLocator), locator)
}

// Unregister implements Store. Files are removed in the reverse order of
// Register, and a directory still holding foreign files is kept.
func (s *FileStore) Unregister(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	dir := filepath.Join(s.root, name)
	if err := os.Remove(filepath.Join(dir, KeyLocator)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to remove entry %s: %w", name, err)
	}
	if err := os.Remove(filepath.Join(dir, KeyDescription)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove description of %s: %w", name, err)
	}
	if err := os.Remove(dir); err != nil && !isNotEmpty(err) {
		return fmt.Errorf("failed to remove entry %s: %w", name, err)
	}
	return nil
}

// FileClassStore keeps class registrations below a root directory:
//
//	<root>/{id}/name       registered device name
//	<root>/{id}/server     module path
//	<root>/{id}/threading  threading model
type FileClassStore struct {
	root string
}

// NewFileClassStore returns a class store rooted at root.
func NewFileClassStore(root string) *FileClassStore {
	return &FileClassStore{root: root}
}

// RegisterClass implements ClassStore.
func (s *FileClassStore) RegisterClass(id guid.GUID, name, path string) error {
	dir := filepath.Join(s.root, id.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create class %s: %w", id, err)
	}
	if err := writeLine(filepath.Join(dir, "name"), name); err != nil {
		return err
	}
	if err := writeLine(filepath.Join(dir, "threading"), "Both"); err != nil {
		return err
	}
	return writeLine(filepath.Join(dir, "server"), path)
}

// UnregisterClass implements ClassStore.
func (s *FileClassStore) UnregisterClass(id guid.GUID) error {
	dir := filepath.Join(s.root, id.String())
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	for _, f := range []string{"server", "threading", "name"} {
		if err := os.Remove(filepath.Join(dir, f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove class %s: %w", id, err)
		}
	}
	if err := os.Remove(dir); err != nil && !isNotEmpty(err) {
		return fmt.Errorf("failed to remove class %s: %w", id, err)
	}
	return nil
}

// ServerPath implements ClassStore.
func (s *FileClassStore) ServerPath(id guid.GUID) (string, error) {
	path, err := readFirstLine(filepath.Join(s.root, id.String(), "server"))
	if err != nil || path == "" {
		return "", fmt.Errorf("class %s: %w", id, ErrNotFound)
	}
	return path, nil
}

func readFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, maxValueLen))
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}
	return string(bytes.TrimRight(buf, "\r")), nil
}

func writeLine(path, value string) error {
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) || errors.Is(err, fs.ErrExist)
}
