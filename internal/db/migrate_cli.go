package db

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// ErrUsage is returned for malformed migrate subcommands. The help text
// has already been written when it is returned.
var ErrUsage = errors.New("invalid migrate usage")

// RunMigrateCommand handles the 'migrate' subcommand. in is read for the
// confirmation prompt of force; out receives status output.
func RunMigrateCommand(args []string, dbPath string, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return ErrUsage
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	migrations, err := getMigrationsFS()
	if err != nil {
		return err
	}

	// Open without migrating; these actions manage the schema themselves.
	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ All migrations applied successfully")
		return printVersion(out, database, migrations)

	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Migration rolled back successfully")
		return printVersion(out, database, migrations)

	case "status":
		return printStatus(out, database, migrations)

	case "version":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: solarlens migrate version <version_number>")
			return ErrUsage
		}
		var target uint
		if _, err := fmt.Sscanf(args[1], "%d", &target); err != nil {
			return fmt.Errorf("%w: invalid version number %q", ErrUsage, args[1])
		}
		if err := database.MigrateTo(migrations, target); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migrated to version %d successfully\n", target)
		return nil

	case "force":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: solarlens migrate force <version_number>")
			return ErrUsage
		}
		var forced int
		if _, err := fmt.Sscanf(args[1], "%d", &forced); err != nil {
			return fmt.Errorf("%w: invalid version number %q", ErrUsage, args[1])
		}
		fmt.Fprintf(out, "⚠️  WARNING: Forcing migration version to %d\n", forced)
		fmt.Fprintln(out, "This should only be used to recover from a dirty migration state.")
		fmt.Fprint(out, "Continue? [y/N]: ")
		if !confirmed(in) {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
		if err := database.MigrateForce(migrations, forced); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migration version forced to %d\n", forced)
		return nil

	default:
		fmt.Fprintf(out, "Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp(out)
		return ErrUsage
	}
}

func confirmed(in io.Reader) bool {
	if in == nil {
		return false
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(line)
	return line == "y" || line == "Y"
}

func printVersion(out io.Writer, database *DB, migrations fs.FS) error {
	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func printStatus(out io.Writer, database *DB, migrations fs.FS) error {
	status, err := database.GetMigrationStatus(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(out, "Latest version: %d\n", status.LatestVersion)
	fmt.Fprintf(out, "Dirty: %v\n", status.Dirty)
	fmt.Fprintf(out, "Schema migrations table exists: %v\n", status.SchemaMigrationsExists)

	if status.Dirty {
		fmt.Fprintln(out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run:")
		fmt.Fprintln(out, "  solarlens migrate force <version>")
	} else if status.Pending() {
		fmt.Fprintf(out, "\n%d migration(s) pending. Run: solarlens migrate up\n",
			status.LatestVersion-status.CurrentVersion)
	}
	return nil
}

// PrintMigrateHelp writes the migrate subcommand usage.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: solarlens migrate <action> [args]

Actions:
  up                 Apply all pending migrations
  down               Roll back the most recent migration
  status             Show current and latest schema versions
  version <n>        Migrate up or down to version n
  force <n>          Force the recorded version (dirty state recovery)
  help               Show this message
`)
}
