package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/skinshop/core/bootstrap"
	"github.com/m3rciful/skinshop/core/logger"
)

// SeedData is the YAML layout of a catalog seed file.
type SeedData struct {
	Categories    []Category    `yaml:"categories"`
	SubCategories []SubCategory `yaml:"sub_categories"`
	Skins         []Skin        `yaml:"skins"`
	Exteriors     []Exterior    `yaml:"exteriors"`
}

// LoadSeedFile decodes a catalog seed file.
func LoadSeedFile(path string) (SeedData, error) {
	var data SeedData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse seed file: %w", err)
	}
	return data, nil
}

// Seeder returns a bootstrap seeder that loads path into an empty catalog.
func Seeder(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, storage bootstrap.Storage) error {
		data, err := LoadSeedFile(path)
		if err != nil {
			return err
		}
		_, err = Seed(ctx, storage.DB, data)
		return err
	})
}

// Seed inserts data when the catalog has no categories yet and reports whether it did.
func Seed(ctx context.Context, db *sqlx.DB, data SeedData) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM categories`); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		logger.SEED.InfoContext(ctx, "catalog already seeded",
			slog.String("event", "seed.skip"),
			slog.Int("categories", count),
		)
		return false, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		table string
		query string
		rows  any
		n     int
	}{
		{"categories", `INSERT INTO categories (id, name, requires_star_prefix) VALUES (:id, :name, :requires_star_prefix)`, data.Categories, len(data.Categories)},
		{"sub_categories", `INSERT INTO sub_categories (id, name, category_id) VALUES (:id, :name, :category_id)`, data.SubCategories, len(data.SubCategories)},
		{"skins", `INSERT INTO skins (id, name, image, type, description, exterior, category_id, sub_category_id)
			VALUES (:id, :name, :image, :type, :description, :exterior, :category_id, :sub_category_id)`, data.Skins, len(data.Skins)},
		{"exteriors", `INSERT INTO exteriors (id, code, price_id, spec_price_id, skin_id)
			VALUES (:id, :code, :price_id, :spec_price_id, :skin_id)`, data.Exteriors, len(data.Exteriors)},
	}
	for _, step := range steps {
		if step.n == 0 {
			continue
		}
		if _, err := tx.NamedExecContext(ctx, step.query, step.rows); err != nil {
			return false, fmt.Errorf("seed %s: %w", step.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	logger.SEED.InfoContext(ctx, "catalog seeded",
		slog.String("event", "seed.apply"),
		slog.Int("categories", len(data.Categories)),
		slog.Int("sub_categories", len(data.SubCategories)),
		slog.Int("skins", len(data.Skins)),
		slog.Int("exteriors", len(data.Exteriors)),
	)
	return true, nil
}
