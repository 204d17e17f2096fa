package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"finsync/internal/config"
)

const usage = "Usage: migrate [-dir db/migrations] up|down|steps N|force V|version"

func main() {
	dir := flag.String("dir", "db/migrations", "migrations directory")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m, err := migrate.New("file://"+*dir, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if err := run(m, flag.Args()); err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("migrations applied successfully")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("migrations reverted successfully")

	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Printf("applied %d migration steps", n)

	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(v); err != nil {
			return err
		}
		log.Printf("forced version %d", v)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid %s argument: %w", args[0], err)
	}
	return n, nil
}
