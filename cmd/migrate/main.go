package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/safar/go-order-engine/internal/config"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/migrations"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [up|up-by-one|down|redo|reset|status|version]")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Set dialect: %v", err)
	}

	if err := goose.RunContext(ctx, command, db, ".", flag.Args()[1:]...); err != nil {
		log.Fatalf("Migrate %s: %v", command, err)
	}
}
