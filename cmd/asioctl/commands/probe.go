package commands

import (
	"fmt"
	"io"

	"github.com/snowmerak/asio.go/lib/probe"
)

// RunProbe loads a registered device, initializes it and prints its
// capabilities.
func RunProbe(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("probe", stderr)
	configPath := addConfigFlag(fs)
	format := fs.String("format", "text", "output format: text, json, yaml, cbor, proto")
	rate := fs.Float64("rate", 0, "sample rate to select before probing")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: asioctl probe [options] <device-name>

Load the named device and report channels, latencies, buffer sizes,
sample rates and clock sources.

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

	session, err := e.newSession()
	if err != nil {
		return fail(stderr, ExitCommandError, err)
	}
	if err := session.LoadByName(e.store, name); err != nil {
		return fail(stderr, ExitDeviceError, fmt.Errorf("failed to load %s: %w", name, err))
	}
	defer func() {
		if err := session.Unload(); err != nil {
			e.logger.Warn("failed to unload driver", "name", name, "error", err)
		}
	}()

	if _, err := session.Init(nil); err != nil {
		return fail(stderr, ExitDeviceError, fmt.Errorf("failed to initialize %s: %w", name, err))
	}
	if *rate > 0 {
		if err := session.SetSampleRate(*rate); err != nil {
			return fail(stderr, ExitDeviceError, fmt.Errorf("failed to set sample rate %g: %w", *rate, err))
		}
	}

	report, err := probe.Run(session.Driver())
	if err != nil {
		return fail(stderr, ExitDeviceError, err)
	}
	if err := probe.Write(stdout, report, probe.Format(*format)); err != nil {
		return fail(stderr, ExitCommandError, err)
	}
	return ExitSuccess
}
