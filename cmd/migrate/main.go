// Command migrate manages the custody schema: it applies and rolls back the
// SQL files under migrations/ and scaffolds new ones.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"github.com/notaria/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [flags] <command> [arguments]

Commands:
  up                    apply all pending migrations
  down                  roll back every migration
  steps <n>             apply n migrations, negative n rolls back
  version               print the applied version
  force <version>       record a version after a failed run
  create <name> [desc]  scaffold an up/down file pair
  list                  list migration files

Flags:
`

var errUsage = errors.New("invalid arguments")

// schemaCommand runs against the database
type schemaCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var schemaCommands = map[string]schemaCommand{
	"up":   func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() },
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() },
	"steps": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		status, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", status.Version), zap.Bool("dirty", status.Dirty))
		return nil
	},
}

func main() {
	dir := flag.String("path", "", "migrations directory (default: nearest ./migrations)")
	configPath := flag.String("config", "", "TOML config file (default: ./config.toml or NOTARIA_* env)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: *level, Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log, *dir, *configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		log.Fatal("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func run(log *zap.Logger, dir, configPath, command string, args []string) error {
	if dir == "" {
		found, err := migration.FindMigrationsDir(".")
		if err != nil {
			return err
		}
		dir = found
	}

	switch command {
	case "create":
		if len(args) == 0 {
			return fmt.Errorf("%w: create needs a name", errUsage)
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		f, err := migration.CreateMigration(dir, args[0], desc, time.Now())
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up", f.UpPath), zap.String("down", f.DownPath))
		return nil
	case "list":
		names, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	cmd, ok := schemaCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Database.Host, err)
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Running schema command", zap.String("command", command), zap.String("dir", dir))
	return cmd(m, log, args)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: a number is required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}
