package main

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"librarygql/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createTableRe = regexp.MustCompile(`(?m)^CREATE TABLE (\w+) \(`)
	dropTableRe   = regexp.MustCompile(`(?m)^DROP TABLE (\w+);`)
)

func readMigration(t *testing.T, name string) (up, down string) {
	t.Helper()
	b, err := fs.ReadFile(db.Migrations, db.MigrationsDir+"/"+name)
	require.NoError(t, err)

	s := string(b)
	require.True(t, strings.HasPrefix(s, "-- +goose Up\n"), "%s must open with the Up directive", name)
	up, down, ok := strings.Cut(strings.TrimPrefix(s, "-- +goose Up\n"), "-- +goose Down\n")
	require.True(t, ok, "%s missing '-- +goose Down'", name)
	return up, down
}

func captures(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

func TestLibraryMigration_Tables(t *testing.T) {
	up, down := readMigration(t, "00001_library.sql")

	assert.Equal(t, []string{"authors", "books", "users"}, captures(createTableRe, up))
	assert.Equal(t, []string{"users", "books", "authors"}, captures(dropTableRe, down))

	assert.Contains(t, up, "name     text NOT NULL UNIQUE")
	assert.Contains(t, up, "username       text NOT NULL UNIQUE")
	assert.Contains(t, up, "USING GIN (genres)")
	assert.NotContains(t, up, "REFERENCES", "books keep their rows when an author is removed")
}

func TestMigrations_HaveGooseDirectives(t *testing.T) {
	entries, err := fs.ReadDir(db.Migrations, db.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		up, down := readMigration(t, e.Name())
		assert.NotEmpty(t, strings.TrimSpace(up), e.Name())
		assert.NotEmpty(t, strings.TrimSpace(down), e.Name())
	}
}
