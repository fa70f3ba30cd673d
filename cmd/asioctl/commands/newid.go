package commands

import (
	"fmt"
	"io"

	"github.com/snowmerak/asio.go/lib/guid"
)

// RunNewID prints fresh class identities for new device instances.
func RunNewID(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("new-id", stderr)
	count := fs.Int("n", 1, "number of identities to print")

	if err := fs.Parse(args); err != nil {
		return ExitCommandError
	}
	if *count < 1 {
		return fail(stderr, ExitCommandError, fmt.Errorf("-n must be at least 1, got %d", *count))
	}

	for range *count {
		id, err := guid.New()
		if err != nil {
			return fail(stderr, ExitCommandError, err)
		}
		fmt.Fprintln(stdout, id.String())
	}
	return ExitSuccess
}
