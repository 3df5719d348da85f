package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigDSNAndURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "shop", Password: "p@ss", Name: "skins"}
	if got, want := cfg.DSN(), "user=shop password=p@ss host=db port=5432 dbname=skins sslmode=disable"; got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://shop:p%40ss@db:5432/skins?sslmode=disable"; got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}

func TestMigrationFileSelection(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_prices.up.sql", "000001_catalog.up.sql", "000001_catalog.down.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	files := listMigrationFiles(dir)
	if want := []string{"000001_catalog.up.sql", "000002_prices.up.sql"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	if got := selectApplied(files, 1, 2); !reflect.DeepEqual(got, []string{"000002_prices.up.sql"}) {
		t.Fatalf("applied = %v", got)
	}
	if got := selectApplied(files, 2, 2); len(got) != 0 {
		t.Fatalf("expected nothing applied, got %v", got)
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m")
	if got, err := resolveMigrationsDir(abs); err != nil || got != abs {
		t.Fatalf("resolve abs = %q, %v", got, err)
	}
	got, err := resolveMigrationsDir("")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if filepath.Base(got) != "migrations" {
		t.Fatalf("unexpected default dir %q", got)
	}
}
