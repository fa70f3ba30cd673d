// Command host is a minimal audio host: it picks a registered device,
// prints its capabilities, streams for a while and reports what the
// driver delivered.
//
//	go build -buildmode=plugin -o null.so ./example/plugins/null
//	go run ./cmd/asioctl install ./null.so
//	go run ./example/host -duration 2s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/snowmerak/asio.go/lib/asio"
	"github.com/snowmerak/asio.go/lib/config"
	"github.com/snowmerak/asio.go/lib/loader"
	"github.com/snowmerak/asio.go/lib/logging"
	"github.com/snowmerak/asio.go/lib/probe"
	"github.com/snowmerak/asio.go/lib/registry"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "configuration file (YAML)")
	name := flag.String("name", "", "device to open (default: the first registered device)")
	duration := flag.Duration("duration", 3*time.Second, "how long to stream")
	flag.Parse()

	if err := run(*configPath, *name, *duration); err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, name string, duration time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, version)

	store := registry.NewDefault(cfg.Registry.Root, registry.WithLogger(logger.Logger))
	entries, err := registry.List(store)
	if err != nil {
		return fmt.Errorf("failed to read registry: %w", err)
	}
	fmt.Println("Registered devices:")
	for _, e := range entries {
		fmt.Printf("  %s\t%s\n", e.Name, e.Description)
	}
	if name == "" {
		if len(entries) == 0 {
			return fmt.Errorf("no devices registered in %s", cfg.Registry.Root)
		}
		name = entries[0].Name
	}

	l, err := loader.New(loader.Strategy(strings.ToLower(cfg.Loader.Strategy)),
		loader.WithClassStore(registry.NewDefaultClasses(cfg.Registry.Classes)),
		loader.WithLogger(logger.Logger),
	)
	if err != nil {
		return err
	}
	session := asio.NewSession(l, asio.WithLogger(logger.Logger))

	if err := session.LoadByName(store, name); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	defer func() {
		if err := session.Unload(); err != nil {
			logger.Warn("failed to unload driver", "error", err)
		}
	}()

	info, err := session.Init(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize %s: %w", name, err)
	}
	logger.Info("driver initialized", "name", info.Name, "version", info.DriverVersion)

	report, err := probe.Run(session.Driver())
	if err != nil {
		return err
	}
	fmt.Println()
	if err := probe.Write(os.Stdout, report, probe.FormatText); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, duration)
	defer cancel()

	stats, err := stream(ctx, session, report, logger)
	if err != nil {
		return err
	}
	fmt.Printf("\nStreamed %d buffers (%d samples) at %g Hz\n", stats.buffers, stats.samples, report.SampleRate)
	return nil
}
