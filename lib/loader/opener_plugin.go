//go:build (linux || darwin || freebsd) && cgo

package loader

import (
	"fmt"
	"plugin"
)

// DefaultOpener opens Go plugins built with -buildmode=plugin.
func DefaultOpener() Opener {
	return OpenerFunc(openPlugin)
}

type pluginLibrary struct {
	p *plugin.Plugin
}

func openPlugin(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open module %s: %w", path, err)
	}
	return &pluginLibrary{p: p}, nil
}

func (l *pluginLibrary) Lookup(symbol string) (any, error) {
	return l.p.Lookup(symbol)
}

// Close is a no-op: the runtime never unloads a plugin.
func (l *pluginLibrary) Close() error {
	return nil
}
