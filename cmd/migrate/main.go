package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"librarygql/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()
	uri := databaseURI()
	ctx := context.Background()

	if strings.HasPrefix(uri, "mongodb") {
		if err := migrateMongo(ctx, uri); err != nil {
			log.Fatalf("Failed to prepare MongoDB: %v", err)
		}
		fmt.Println("MongoDB indexes ensured")
		return
	}

	if *command == "create" {
		if *name == "" {
			log.Fatal("Name is required for 'create' command")
		}
		if err := goose.Create(nil, createDir(), *name, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	switch *command {
	case "up", "down", "status":
	default:
		log.Fatalf("Unknown command: %s. Use: up, down, status, create", *command)
	}

	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	fsys, dir := migrationsSource()
	if err := store.MigratePG(ctx, pool, fsys, dir, *command); err != nil {
		log.Fatalf("Failed to run %s: %v", *command, err)
	}
	if *command != "status" {
		fmt.Printf("Migrations %s applied successfully\n", *command)
	}
}

// migrateMongo has no schema to apply. Opening the store creates the
// indexes.
func migrateMongo(ctx context.Context, uri string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	m, err := store.OpenMongo(ctx, store.Options{
		URI:      uri,
		Database: os.Getenv("DB_NAME"),
		Timeout:  10 * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return m.Close(ctx)
}
