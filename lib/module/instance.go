package module

import "github.com/snowmerak/asio.go/lib/guid"

// Instance is one addressable device a module exposes.
type Instance struct {
	Name        string
	ID          guid.GUID
	Description string
}

// InstanceTable is the ordered list of instances of a module. The first
// entry is the default instance.
type InstanceTable []Instance

// FindName returns the instance called name. An empty name selects the
// first entry.
func (t InstanceTable) FindName(name string) (Instance, bool) {
	if len(t) == 0 {
		return Instance{}, false
	}
	if name == "" {
		return t[0], true
	}
	for _, inst := range t {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instance{}, false
}

// FindID returns the instance with class identity id.
func (t InstanceTable) FindID(id guid.GUID) (Instance, bool) {
	for _, inst := range t {
		if guid.Equal(&inst.ID, &id) {
			return inst, true
		}
	}
	return Instance{}, false
}
