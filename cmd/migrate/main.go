package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/symphonyguild/guildsite/internal/pkg/database"
	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

const usage = `Usage: migrate <command>

Commands:
  up       apply all pending migrations
  down     roll back the last migration
  goto N   migrate up or down to version N
  status   print the current version`

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	path := database.MigrationsPath("migrations")
	log.Printf("Migrating %s@%s/%s from %s",
		env.GetEnv("DB_USER", ""), env.GetEnv("DB_HOST", "127.0.0.1"), env.GetEnv("DB_NAME", ""), path)

	mg, err := database.NewMigrator(path)
	if err != nil {
		log.Fatal(err)
	}

	err = run(mg, os.Args[1], os.Args[2:])
	if closeErr := mg.Close(); closeErr != nil {
		log.Printf("Failed to close migrator: %v", closeErr)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(mg *database.Migrator, command string, args []string) error {
	switch command {
	case "up":
		changed, err := mg.Up()
		if err != nil {
			return fmt.Errorf("up: %w", err)
		}
		report(changed, "Migrations applied")

	case "down":
		if err := mg.Down(); err != nil {
			return fmt.Errorf("down: %w", err)
		}
		log.Println("Rolled back the last migration")

	case "goto":
		if len(args) == 0 {
			return fmt.Errorf("goto needs a version number")
		}
		version, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		changed, err := mg.Goto(uint(version))
		if err != nil {
			return fmt.Errorf("goto %d: %w", version, err)
		}
		report(changed, fmt.Sprintf("Now at version %d", version))

	case "status":
		version, dirty, ok, err := mg.Status()
		switch {
		case err != nil:
			return fmt.Errorf("status: %w", err)
		case !ok:
			log.Println("No migrations applied")
		case dirty:
			log.Printf("Version %d (dirty)", version)
		default:
			log.Printf("Version %d", version)
		}

	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
	return nil
}

func report(changed bool, msg string) {
	if !changed {
		log.Println("No change")
		return
	}
	log.Println(msg)
}
