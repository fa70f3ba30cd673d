// Package commands implements the asioctl subcommands. Each Run function
// takes its arguments and output streams and returns the exit code.
package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/snowmerak/asio.go/lib/asio"
	"github.com/snowmerak/asio.go/lib/config"
	"github.com/snowmerak/asio.go/lib/loader"
	"github.com/snowmerak/asio.go/lib/logging"
	"github.com/snowmerak/asio.go/lib/registry"
)

// Version of asioctl.
const Version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitCommandError = 1
	ExitDeviceError  = 2
)

// env bundles what every command derives from the configuration.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	store  registry.Store
}

func addConfigFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "configuration file (YAML)")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func loadEnv(configPath string, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cfg.Logging, Version, logOutput(cfg.Logging.Output, stderr))
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  registry.NewDefault(cfg.Registry.Root, registry.WithLogger(logger.Logger)),
	}, nil
}

// logOutput keeps log records off stdout, which carries command output.
func logOutput(name string, stderr io.Writer) io.Writer {
	if name == "discard" {
		return io.Discard
	}
	return stderr
}

func fail(stderr io.Writer, code int, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return code
}

// opener opens device modules for the loader and the install commands.
var opener loader.Opener = loader.DefaultOpener()

// newSession builds a session using the configured loading strategy.
func (e *env) newSession() (*asio.Session, error) {
	l, err := loader.New(loader.Strategy(strings.ToLower(e.cfg.Loader.Strategy)),
		loader.WithOpener(opener),
		loader.WithClassStore(registry.NewDefaultClasses(e.cfg.Registry.Classes)),
		loader.WithLogger(e.logger.Logger),
	)
	if err != nil {
		return nil, err
	}
	return asio.NewSession(l, asio.WithLogger(e.logger.Logger)), nil
}
