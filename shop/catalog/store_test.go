package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection to :memory: would get its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_catalog.up.sql"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatal(err)
	}
	return db
}

func int64p(v int64) *int64 { return &v }

func fixture() SeedData {
	return SeedData{
		Categories: []Category{
			{ID: 1, Name: "Knives", StarPrefix: true},
			{ID: 3, Name: "Rifles"},
		},
		SubCategories: []SubCategory{
			{ID: 10, Name: "Karambit", CategoryID: 1},
			{ID: 30, Name: "AK-47", CategoryID: 3},
		},
		Skins: []Skin{
			{ID: 102, Name: "AK-47 | Redline", Image: "redline.png", Type: "StatTrak", Description: "Red lines. Second sentence.", Exterior: "ft", CategoryID: 3, SubCategoryID: 30},
			{ID: 101, Name: "AK-47 | Vulcan", Image: "vulcan.png", Type: "Normal", Exterior: "fn", CategoryID: 3, SubCategoryID: 30},
			{ID: 200, Name: "Karambit | Fade", Image: "fade.png", Type: "Normal", Exterior: "fn", CategoryID: 1, SubCategoryID: 10},
		},
		Exteriors: []Exterior{
			{ID: 2, Code: "mw", PriceID: int64p(11), SkinID: 102},
			{ID: 1, Code: "ft", PriceID: int64p(10), SpecPriceID: int64p(12), SkinID: 102},
			{ID: 3, Code: "fn", SkinID: 200},
		},
	}
}

func seeded(t *testing.T) *Store {
	t.Helper()
	db := memdb(t)
	ok, err := Seed(context.Background(), db, fixture())
	if err != nil || !ok {
		t.Fatalf("seed: ok=%v err=%v", ok, err)
	}
	return NewStore(db)
}

func TestSeedOnlyIntoEmptyCatalog(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	if ok, err := Seed(ctx, db, fixture()); err != nil || !ok {
		t.Fatalf("first seed: ok=%v err=%v", ok, err)
	}
	ok, err := Seed(ctx, db, fixture())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if ok {
		t.Fatal("expected second seed to be skipped")
	}
}

func TestListCategoriesAndSubCategories(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()

	cats, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Knives" || !cats[0].StarPrefix || cats[1].StarPrefix {
		t.Fatalf("unexpected categories %+v", cats)
	}

	subs, err := store.ListSubCategories(ctx, 3)
	if err != nil {
		t.Fatalf("sub categories: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "AK-47" {
		t.Fatalf("unexpected sub categories %+v", subs)
	}
}

func TestListSkinsOrderedByID(t *testing.T) {
	store := seeded(t)
	skins, err := store.ListSkins(context.Background(), 30)
	if err != nil {
		t.Fatalf("skins: %v", err)
	}
	if len(skins) != 2 || skins[0].ID != 101 || skins[1].ID != 102 {
		t.Fatalf("expected skins ordered by id, got %+v", skins)
	}
	if skins[0].Description != "" {
		t.Fatalf("null description should read as empty, got %q", skins[0].Description)
	}
}

func TestGetSkinCarriesStarPrefix(t *testing.T) {
	store := seeded(t)
	skin, err := store.GetSkin(context.Background(), 200)
	if err != nil {
		t.Fatalf("get skin: %v", err)
	}
	if !skin.StarPrefix || !skin.IsNormal() {
		t.Fatalf("unexpected skin %+v", skin)
	}

	_, err = store.GetSkin(context.Background(), 999)
	if !errors.Is(err, ErrDataRetrieval) {
		t.Fatalf("expected ErrDataRetrieval, got %v", err)
	}
}

func TestListExteriors(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()

	exts, err := store.ListExteriors(ctx, 102)
	if err != nil {
		t.Fatalf("exteriors: %v", err)
	}
	if len(exts) != 2 || exts[0].Code != "ft" || exts[1].Code != "mw" {
		t.Fatalf("expected exteriors ordered by id, got %+v", exts)
	}
	if exts[0].PriceID == nil || *exts[0].PriceID != 10 || exts[0].SpecPriceID == nil || *exts[0].SpecPriceID != 12 {
		t.Fatalf("unexpected price refs %+v", exts[0])
	}
	if exts[1].SpecPriceID != nil {
		t.Fatalf("expected nil spec price id, got %v", *exts[1].SpecPriceID)
	}

	if _, err := store.ListExteriors(ctx, 101); !errors.Is(err, ErrDataRetrieval) {
		t.Fatalf("expected ErrDataRetrieval for skin without exteriors, got %v", err)
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
categories:
  - {id: 1, name: Knives, star_prefix: true}
exteriors:
  - {id: 5, code: none, price_id: 7, skin_id: 2}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(data.Categories) != 1 || !data.Categories[0].StarPrefix {
		t.Fatalf("unexpected categories %+v", data.Categories)
	}
	if ext := data.Exteriors[0]; ext.PriceID == nil || *ext.PriceID != 7 || ext.SpecPriceID != nil {
		t.Fatalf("unexpected exterior %+v", ext)
	}
}

func TestPriceString(t *testing.T) {
	if got := PriceOf(12.5).String(); got != "12.5" {
		t.Fatalf("got %q", got)
	}
	if got := (Price{}).String(); got != "-" {
		t.Fatalf("got %q", got)
	}
}
