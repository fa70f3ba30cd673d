package loader

import (
	"fmt"
	"sync"

	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
)

// Classes is the process-wide class table.
var Classes = NewClassTable()

// ClassTable maps class identities to factories living in this process.
// The activation strategy consults it before looking for a module.
type ClassTable struct {
	mu        sync.RWMutex
	factories map[guid.GUID]driver.ClassFactory
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{factories: make(map[guid.GUID]driver.ClassFactory)}
}

// Register makes f the factory of id until the returned revoke function is
// called. The table holds a reference on f meanwhile.
func (t *ClassTable) Register(id guid.GUID, f driver.ClassFactory) (revoke func(), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.factories[id]; exists {
		return nil, fmt.Errorf("class %s already registered", id)
	}
	f.AddRef()
	t.factories[id] = f

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.factories, id)
			t.mu.Unlock()
			f.Release()
		})
	}, nil
}

// lookup returns the factory of id with an added reference.
func (t *ClassTable) lookup(id guid.GUID) (driver.ClassFactory, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f, ok := t.factories[id]
	if ok {
		f.AddRef()
	}
	return f, ok
}
