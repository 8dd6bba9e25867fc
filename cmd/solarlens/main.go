// Command solarlens runs the exoplanet detection pipeline on recorded
// frames, serves stored runs over HTTP and manages the run database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/solarlens/internal/db"
	"github.com/banshee-data/solarlens/internal/monitoring"
	"github.com/banshee-data/solarlens/internal/version"
)

const defaultDBPath = "solarlens.db"

func main() {
	flag.Usage = func() { printUsage(os.Stdout) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUnknownCommand) {
			fmt.Fprintln(os.Stderr)
			printUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

var errUnknownCommand = errors.New("unknown command")

// run dispatches one subcommand.
func run(ctx context.Context, command string, args []string, in io.Reader, out io.Writer) error {
	switch command {
	case "detect":
		return handleDetect(args, out)
	case "serve":
		return handleServe(ctx, args)
	case "migrate":
		return handleMigrate(args, in, out)
	case "optics":
		return handleOptics(args, out)
	case "version":
		fmt.Fprintln(out, version.String())
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

// logFlags registers the logging flags shared by every subcommand.
func logFlags(fs *flag.FlagSet) func() {
	level := fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	format := fs.String("log-format", "console", "Log format (console or json)")
	return func() {
		monitoring.Init(monitoring.Options{Level: *level, Format: *format, Component: "solarlens"})
	}
}

func handleMigrate(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, in, out)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `solarlens - Exoplanet detection through the solar gravitational lens

Usage: solarlens <command> [options]

Commands:
  detect     Run the detection pipeline on a frame (and optional spectrum)
  serve      Serve stored detection runs over HTTP
  migrate    Manage the run database schema (up, down, status, version, force)
  optics     Print focal distance, magnification, PSF and corona values
  version    Show solarlens version
  help       Show this help message

Examples:
  # Generate a synthetic observation and run the pipeline on it
  gen-frame -frame obs.slfr -spectrum obs.slsp
  solarlens detect -frame obs.slfr -spectrum obs.slsp -db solarlens.db -plots ./out

  # Serve the stored runs
  solarlens serve -db solarlens.db -listen :8080

  # Lens geometry at 1 micron
  solarlens optics -wavelength 1000 -distance-au 650

Run 'solarlens <command> -h' for the flags of a command.
`)
}
