// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"travelcatalog/internal/config"
	"travelcatalog/internal/database"
	"travelcatalog/internal/migrations"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s up|down|status\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator, err := migrations.NewMigrator(db)
	if err != nil {
		log.Fatalf("Failed to load migrations: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		ran, err := migrator.Up(ctx)
		for _, m := range ran {
			log.Printf("migration=%04d_%s status=applied", m.Version, m.Name)
		}
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		if len(ran) == 0 {
			log.Printf("migrations=up-to-date")
		}
	case "down":
		m, err := migrator.Down(ctx)
		if err != nil {
			log.Fatalf("Revert failed: %v", err)
		}
		log.Printf("migration=%04d_%s status=reverted", m.Version, m.Name)
	case "status":
		applied, err := migrator.Applied(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		for _, v := range applied {
			fmt.Printf("%04d applied\n", v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}
