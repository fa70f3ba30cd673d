//go:build windows

package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows/registry"
)

// fakeKey is an in-memory registry key.
type fakeKey struct {
	values  map[string]bool
	subkeys []string

	deleteErr error
	listErr   error
}

func (k *fakeKey) DeleteValue(name string) error {
	if k.deleteErr != nil {
		return k.deleteErr
	}
	if !k.values[name] {
		return registry.ErrNotExist
	}
	delete(k.values, name)
	return nil
}

func (k *fakeKey) ReadValueNames(int) ([]string, error) {
	if k.listErr != nil {
		return nil, k.listErr
	}
	var names []string
	for name := range k.values {
		names = append(names, name)
	}
	return names, nil
}

func (k *fakeKey) ReadSubKeyNames(int) ([]string, error) {
	return k.subkeys, nil
}

func TestClearEntry(t *testing.T) {
	t.Run("only owned values", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true, "Description": true}}
		empty, err := clearEntry(k)
		require.NoError(t, err)
		assert.True(t, empty)
		assert.Empty(t, k.values)
	})

	t.Run("without description", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true}}
		empty, err := clearEntry(k)
		require.NoError(t, err)
		assert.True(t, empty)
	})

	t.Run("foreign value kept", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true, "Vendor": true}}
		empty, err := clearEntry(k)
		require.NoError(t, err)
		assert.False(t, empty)
		assert.True(t, k.values["Vendor"])
	})

	t.Run("foreign subkey kept", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true}, subkeys: []string{"Settings"}}
		empty, err := clearEntry(k)
		require.NoError(t, err)
		assert.False(t, empty)
	})

	t.Run("delete fails", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true}, deleteErr: errors.New("access denied")}
		empty, err := clearEntry(k)
		assert.Error(t, err)
		assert.False(t, empty)
	})

	t.Run("listing fails", func(t *testing.T) {
		k := &fakeKey{values: map[string]bool{"CLSID": true, "Vendor": true}, listErr: errors.New("access denied")}
		empty, err := clearEntry(k)
		assert.Error(t, err)
		assert.False(t, empty)
	})
}
