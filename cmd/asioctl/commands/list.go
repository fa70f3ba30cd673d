package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/snowmerak/asio.go/lib/registry"
)

// RunList prints the registered devices.
func RunList(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("list", stderr)
	configPath := addConfigFlag(fs)
	format := fs.String("format", "text", "output format: text, json, yaml")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: asioctl list [options]

List the devices in the registry.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitCommandError
	}

	e, err := loadEnv(*configPath, stderr)
	if err != nil {
		return fail(stderr, ExitCommandError, err)
	}

	entries, err := registry.List(e.store)
	if errors.Is(err, registry.ErrNoStore) {
		e.logger.Debug("registry missing, nothing installed", "root", e.cfg.Registry.Root)
		entries, err = nil, nil
	}
	if err != nil {
		return fail(stderr, ExitDeviceError, err)
	}
	if entries == nil {
		entries = []registry.Entry{}
	}

	switch *format {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fail(stderr, ExitCommandError, err)
		}
		fmt.Fprintln(stdout, string(data))
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fail(stderr, ExitCommandError, err)
		}
		fmt.Fprint(stdout, string(data))
	case "text":
		if len(entries) == 0 {
			fmt.Fprintln(stdout, "No devices registered")
			return ExitSuccess
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLOCATOR\tDESCRIPTION")
		for _, entry := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.Locator, entry.Description)
		}
		tw.Flush()
	default:
		return fail(stderr, ExitCommandError, fmt.Errorf("unknown format %q", *format))
	}

	return ExitSuccess
}
