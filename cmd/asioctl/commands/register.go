package commands

import (
	"fmt"
	"io"
)

// RunRegister adds or replaces a registry entry.
func RunRegister(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("register", stderr)
	configPath := addConfigFlag(fs)
	description := fs.String("description", "", "human readable description")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: asioctl register [options] <device-name> <locator>

The locator is a module path for the symbol loader or a class
identity such as {a3f6c1d0-5e2b-4c7a-9d18-6b0e4f2a7c31} for the
activation loader.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitCommandError
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return ExitCommandError
	}
	name, locator := fs.Arg(0), fs.Arg(1)

	e, err := loadEnv(*configPath, stderr)
	if err != nil {
		return fail(stderr, ExitCommandError, err)
	}
	if err := e.store.Register(name, locator, *description); err != nil {
		return fail(stderr, ExitDeviceError, err)
	}

	fmt.Fprintf(stdout, "Registered %s -> %s\n", name, locator)
	return ExitSuccess
}

// RunUnregister removes a registry entry.
func RunUnregister(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("unregister", stderr)
	configPath := addConfigFlag(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: asioctl unregister [options] <device-name>

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitCommandError
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ExitCommandError
	}
	name := fs.Arg(0)

	e, err := loadEnv(*configPath, stderr)
	if err != nil {
		return fail(stderr, ExitCommandError, err)
	}
	if err := e.store.Unregister(name); err != nil {
		return fail(stderr, ExitDeviceError, err)
	}

	fmt.Fprintf(stdout, "Unregistered %s\n", name)
	return ExitSuccess
}
