package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"librarygql/internal/app"
	"librarygql/internal/auth"
	"librarygql/internal/config"
	"librarygql/internal/entity"
	"librarygql/internal/logging"
	"librarygql/internal/store"
	"librarygql/internal/usecase"

	"go.uber.org/zap"
)

type seedBook struct {
	title     string
	author    string
	published int
	genres    []string
}

var births = map[string]int{
	"Robert Martin":     1952,
	"Martin Fowler":     1963,
	"Fyodor Dostoevsky": 1821,
}

var books = []seedBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2008, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

func main() {
	var (
		reset    = flag.Bool("reset", false, "Remove all books and authors first")
		username = flag.String("user", "seeder", "User that adds the books; created when missing")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init failed", zap.Error(err))
	}
	defer a.Close(ctx)

	n, err := seed(ctx, a.Library(), *username, *reset)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("books", n))
}

// seed adds the sample catalog as username and returns how many books were
// added.
func seed(ctx context.Context, lib *usecase.Library, username string, reset bool) (int, error) {
	if reset {
		lib.RemoveBooks(ctx)
		lib.RemoveAuthors(ctx)
	}

	u, err := lib.CreateUser(ctx, username, "refactoring", nil)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		u = entity.User{Username: username}
	case err != nil:
		return 0, fmt.Errorf("create user: %w", err)
	}
	ctx = auth.ContextWithUser(ctx, &u)

	for _, b := range books {
		if _, err := lib.AddBook(ctx, usecase.AddBookInput{
			Title:     b.title,
			Author:    b.author,
			Published: b.published,
			Genres:    b.genres,
		}); err != nil {
			return 0, fmt.Errorf("add %q: %w", b.title, err)
		}
	}
	for name, born := range births {
		if _, err := lib.EditAuthor(ctx, name, born); err != nil {
			return 0, fmt.Errorf("edit %q: %w", name, err)
		}
	}
	return len(books), nil
}
