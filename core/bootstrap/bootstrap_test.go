package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	coreconfig "github.com/m3rciful/skinshop/core/config"
	coredatabase "github.com/m3rciful/skinshop/core/database"
)

func TestRunPipelineOrder(t *testing.T) {
	var steps []string
	opts := Options{
		Config: &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error {
			steps = append(steps, "logger")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return sqlx.Open("sqlite", ":memory:")
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			steps = append(steps, "migrate")
			return nil
		},
		Seeders: []Seeder{SeederFunc(func(_ context.Context, s Storage) error {
			if s.DB == nil {
				t.Fatal("seeder got nil db")
			}
			steps = append(steps, "seed")
			return nil
		})},
	}
	res, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()

	want := []string{"logger", "connect", "migrate", "seed"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestRunStopsOnMigrationError(t *testing.T) {
	boom := errors.New("boom")
	seeded := false
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("sqlite", ":memory:")
		},
		Migrate: func(context.Context, coredatabase.Config) error { return boom },
		Seeders: []Seeder{SeederFunc(func(context.Context, Storage) error {
			seeded = true
			return nil
		})},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected migration error, got %v", err)
	}
	if seeded {
		t.Fatal("seeder must not run after failed migration")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
