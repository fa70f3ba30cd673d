package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/snowmerak/asio.go/lib/config"
	"github.com/snowmerak/asio.go/lib/loader"
	"github.com/snowmerak/asio.go/lib/module"
)

// RunInstall calls a module's RegisterServer entry point.
func RunInstall(args []string, stdout, stderr io.Writer) int {
	return runServerEntry("install", loader.SymbolRegisterServer, args, stdout, stderr)
}

// RunUninstall calls a module's UnregisterServer entry point.
func RunUninstall(args []string, stdout, stderr io.Writer) int {
	return runServerEntry("uninstall", loader.SymbolUnregisterServer, args, stdout, stderr)
}

func runServerEntry(cmd, symbol string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(cmd, stderr)
	configPath := addConfigFlag(fs)
	name := fs.String("name", "", "instance to "+cmd+" (default: the module's first instance)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: asioctl %s [options] <module-path>

Run the module's %s entry point against the configured registry.

Options:
`, cmd, symbol)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitCommandError
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ExitCommandError
	}
	path := fs.Arg(0)

	e, err := loadEnv(*configPath, stderr)
	if err != nil {
		return fail(stderr, ExitCommandError, err)
	}

	// The module reads its registry locations and install target from the
	// environment of the process that loaded it.
	for key, value := range map[string]string{
		config.EnvRegistryRoot: e.cfg.Registry.Root,
		config.EnvClassRoot:    e.cfg.Registry.Classes,
		config.EnvLoader:       e.cfg.Loader.Strategy,
		module.InstallNameEnv:  *name,
		module.InstallPathEnv:  path,
	} {
		if err := os.Setenv(key, value); err != nil {
			return fail(stderr, ExitCommandError, err)
		}
	}

	lib, err := opener.Open(path)
	if err != nil {
		return fail(stderr, ExitDeviceError, err)
	}
	defer lib.Close()

	entry, err := serverEntry(lib, symbol)
	if err != nil {
		return fail(stderr, ExitDeviceError, fmt.Errorf("%s: %w", path, err))
	}
	if err := entry(); err != nil {
		return fail(stderr, ExitDeviceError, fmt.Errorf("%s %s: %w", symbol, path, err))
	}

	e.logger.Info("module entry point completed", "symbol", symbol, "path", path)
	fmt.Fprintf(stdout, "%s: %s succeeded\n", path, symbol)
	return ExitSuccess
}

func serverEntry(lib loader.Library, symbol string) (func() error, error) {
	sym, err := lib.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", symbol, err)
	}
	switch fn := sym.(type) {
	case func() error:
		return fn, nil
	case *func() error:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, fmt.Errorf("symbol %s has type %T, expected func() error", symbol, sym)
}
