// asioctl inspects and maintains the audio device registry.
package main

import (
	"fmt"
	"os"

	"github.com/snowmerak/asio.go/cmd/asioctl/commands"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(commands.ExitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "list":
		exitCode = commands.RunList(args, os.Stdout, os.Stderr)
	case "probe":
		exitCode = commands.RunProbe(args, os.Stdout, os.Stderr)
	case "register":
		exitCode = commands.RunRegister(args, os.Stdout, os.Stderr)
	case "unregister":
		exitCode = commands.RunUnregister(args, os.Stdout, os.Stderr)
	case "install":
		exitCode = commands.RunInstall(args, os.Stdout, os.Stderr)
	case "uninstall":
		exitCode = commands.RunUninstall(args, os.Stdout, os.Stderr)
	case "new-id":
		exitCode = commands.RunNewID(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = commands.ExitSuccess
	case "version", "-v", "--version":
		fmt.Printf("asioctl version %s\n", commands.Version)
		exitCode = commands.ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = commands.ExitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`asioctl - audio device registry tool

Usage:
  asioctl <command> [options] [arguments]

Commands:
  list         List registered devices
  probe        Load a device and report its capabilities
  register     Add or replace a registry entry
  unregister   Remove a registry entry
  install      Run a module's installer entry point
  uninstall    Run a module's uninstaller entry point
  new-id       Print a fresh class identity

Options:
  -h, --help     Show this help message
  -v, --version  Show version information

Examples:
  asioctl list --format yaml
  asioctl probe "Null Device"
  asioctl register -description "Silent reference device" "Null Device" /usr/lib/cwASIO/null.so
  asioctl install --name "Null Device" /usr/lib/cwASIO/null.so

For command-specific help, run:
  asioctl <command> --help`)
}
