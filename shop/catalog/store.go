package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/skinshop/core/logger"
)

// Store reads the catalog from a relational database.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open sqlx handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const skinColumns = `s.id, s.name, s.image, s.type, COALESCE(s.description, '') AS description,
	s.exterior, s.category_id, s.sub_category_id, c.requires_star_prefix`

// ListCategories returns all categories ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.selectLogged(ctx, "categories", &out,
		`SELECT id, name, requires_star_prefix FROM categories ORDER BY id`)
	return out, err
}

// ListSubCategories returns sub-categories of a category ordered by id.
func (s *Store) ListSubCategories(ctx context.Context, categoryID int64) ([]SubCategory, error) {
	var out []SubCategory
	err := s.selectLogged(ctx, "sub_categories", &out,
		`SELECT id, name, category_id FROM sub_categories WHERE category_id = ? ORDER BY id`, categoryID)
	return out, err
}

// ListSkins returns skins of a sub-category ordered by id ascending.
func (s *Store) ListSkins(ctx context.Context, subCategoryID int64) ([]Skin, error) {
	var out []Skin
	err := s.selectLogged(ctx, "skins", &out,
		`SELECT `+skinColumns+` FROM skins s JOIN categories c ON c.id = s.category_id
		WHERE s.sub_category_id = ? ORDER BY s.id`, subCategoryID)
	return out, err
}

// GetSkin returns a single skin; a missing row wraps ErrDataRetrieval.
func (s *Store) GetSkin(ctx context.Context, id int64) (Skin, error) {
	var skin Skin
	query := s.db.Rebind(`SELECT ` + skinColumns + ` FROM skins s JOIN categories c ON c.id = s.category_id WHERE s.id = ?`)
	if err := s.db.GetContext(ctx, &skin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Skin{}, fmt.Errorf("skin %d not in database: %w", id, ErrDataRetrieval)
		}
		return Skin{}, fmt.Errorf("get skin %d: %w", id, err)
	}
	return skin, nil
}

// ListExteriors returns exteriors of a skin ordered by id. A skin without
// exteriors violates the catalog invariant and wraps ErrDataRetrieval.
func (s *Store) ListExteriors(ctx context.Context, skinID int64) ([]Exterior, error) {
	var out []Exterior
	if err := s.selectLogged(ctx, "exteriors", &out,
		`SELECT id, code, price_id, spec_price_id, skin_id FROM exteriors WHERE skin_id = ? ORDER BY id`, skinID); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no exteriors for skin %d: %w", skinID, ErrDataRetrieval)
	}
	return out, nil
}

func (s *Store) selectLogged(ctx context.Context, table string, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
	attrs := []any{
		slog.String("event", "catalog.select"),
		slog.String("table", table),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	}
	if err != nil {
		logger.Catalog.ErrorContext(ctx, "catalog query failed", append(attrs, slog.String("err", err.Error()))...)
		return fmt.Errorf("select %s: %w", table, err)
	}
	if logger.ShouldSampleDebug() {
		logger.Catalog.DebugContext(ctx, "catalog query", attrs...)
	}
	return nil
}
