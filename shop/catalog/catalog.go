// Package catalog holds the shop hierarchy (category, sub-category, skin,
// exterior) and its sqlx-backed repository.
package catalog

import (
	"errors"
	"strconv"
)

// ErrDataRetrieval marks an expected catalog entity that is absent.
var ErrDataRetrieval = errors.New("catalog: data retrieval failed")

// NormalType is the skin type without a special variant.
const NormalType = "Normal"

// Category is the root of the hierarchy (Rifles, Knives, ...).
type Category struct {
	ID   int64  `db:"id" yaml:"id"`
	Name string `db:"name" yaml:"name"`
	// StarPrefix marks categories whose skins are named with a leading "★ " by the price provider.
	StarPrefix bool `db:"requires_star_prefix" yaml:"star_prefix"`
}

// SubCategory groups skins of one weapon or item (AK-47, AWP, ...).
type SubCategory struct {
	ID         int64  `db:"id" yaml:"id"`
	Name       string `db:"name" yaml:"name"`
	CategoryID int64  `db:"category_id" yaml:"category_id"`
}

// Skin is a single finish of an item.
type Skin struct {
	ID            int64  `db:"id" yaml:"id"`
	Name          string `db:"name" yaml:"name"`
	Image         string `db:"image" yaml:"image"`
	Type          string `db:"type" yaml:"type"`
	Description   string `db:"description" yaml:"description"`
	Exterior      string `db:"exterior" yaml:"exterior"`
	CategoryID    int64  `db:"category_id" yaml:"category_id"`
	SubCategoryID int64  `db:"sub_category_id" yaml:"sub_category_id"`
	StarPrefix    bool   `db:"requires_star_prefix" yaml:"-"`
}

// IsNormal reports whether the skin has no special variant.
func (s Skin) IsNormal() bool { return s.Type == NormalType }

// Exterior is one wear condition of a skin together with its provider price references.
type Exterior struct {
	ID          int64  `db:"id" yaml:"id"`
	Code        string `db:"code" yaml:"code"`
	PriceID     *int64 `db:"price_id" yaml:"price_id"`
	SpecPriceID *int64 `db:"spec_price_id" yaml:"spec_price_id"`
	SkinID      int64  `db:"skin_id" yaml:"skin_id"`
}

// Price is a provider price in the base currency; the zero value is missing.
type Price struct {
	Amount float64 `json:"amount"`
	Known  bool    `json:"known"`
}

// PriceOf returns a known price.
func PriceOf(amount float64) Price { return Price{Amount: amount, Known: true} }

// Missing reports whether the price is absent.
func (p Price) Missing() bool { return !p.Known }

// String renders the amount in shortest form, "-" when missing.
func (p Price) String() string {
	if !p.Known {
		return "-"
	}
	return strconv.FormatFloat(p.Amount, 'f', -1, 64)
}

// ExteriorImage is a provider image of a skin in one exterior (by display name).
type ExteriorImage struct {
	Exterior string `json:"exterior"`
	URL      string `json:"url"`
}
