// Package callbackdata encodes the typed payloads carried by inline buttons.
// The tag becomes the telebot button unique; fields are joined by "|".
package callbackdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/skinshop/shop/catalog"
)

// Tag discriminates payload kinds.
type Tag string

const (
	TagCategory    Tag = "category"
	TagSubCategory Tag = "sub_cat"
	TagSkin        Tag = "skin"
	TagExterior    Tag = "exterior"
	TagSkinType    Tag = "skin_type"
	TagPayment     Tag = "payment"
	TagNav         Tag = "nav"
	TagBack        Tag = "back"
	TagNoop        Tag = "noop"
)

// Tags lists every known tag.
var Tags = []Tag{TagCategory, TagSubCategory, TagSkin, TagExterior, TagSkinType, TagPayment, TagNav, TagBack, TagNoop}

var (
	// ErrUnknownTag is returned for a unique that no payload kind uses.
	ErrUnknownTag = errors.New("callbackdata: unknown tag")
	// ErrMalformed is returned when the fields do not match the tag.
	ErrMalformed = errors.New("callbackdata: malformed payload")
)

// Level names the slider a navigation button belongs to.
type Level string

const (
	LevelSkin     Level = "skin_slider"
	LevelExterior Level = "ext_slider"
)

// Direction is a slider move.
type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

// Callback is implemented by every payload kind.
type Callback interface {
	Tag() Tag
	fields() []string
}

type Category struct {
	ID     int64
	Action string
}

type SubCategory struct {
	ID     int64
	Action string
}

type Skin struct {
	ID     int64
	Action string
}

// Exterior is the buy button of the exterior slider; Name is the exterior label.
type Exterior struct {
	Name   string
	Action string
}

// SkinType offers one variant and its price on the type choice screen.
type SkinType struct {
	Name   string
	Price  catalog.Price
	Action string
}

type Payment struct {
	Method string
	Action string
}

type Nav struct {
	Level Level
	Dir   Direction
}

// Back returns from the screen named by From.
type Back struct {
	From string
}

// Noop marks placeholder buttons (position label, padding).
type Noop struct{}

func (Category) Tag() Tag    { return TagCategory }
func (SubCategory) Tag() Tag { return TagSubCategory }
func (Skin) Tag() Tag        { return TagSkin }
func (Exterior) Tag() Tag    { return TagExterior }
func (SkinType) Tag() Tag    { return TagSkinType }
func (Payment) Tag() Tag     { return TagPayment }
func (Nav) Tag() Tag         { return TagNav }
func (Back) Tag() Tag        { return TagBack }
func (Noop) Tag() Tag        { return TagNoop }

func (c Category) fields() []string    { return []string{itoa(c.ID), c.Action} }
func (c SubCategory) fields() []string { return []string{itoa(c.ID), c.Action} }
func (c Skin) fields() []string        { return []string{itoa(c.ID), c.Action} }
func (c Exterior) fields() []string    { return []string{c.Name, c.Action} }
func (c SkinType) fields() []string    { return []string{c.Name, c.Price.String(), c.Action} }
func (c Payment) fields() []string     { return []string{c.Method, c.Action} }
func (c Nav) fields() []string         { return []string{string(c.Level), string(c.Dir)} }
func (c Back) fields() []string        { return []string{c.From} }
func (Noop) fields() []string          { return nil }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// Encode returns the button unique and data for cb.
func Encode(cb Callback) (unique, data string) {
	return string(cb.Tag()), strings.Join(cb.fields(), "|")
}

// Decode parses a payload produced by Encode.
func Decode(unique, data string) (Callback, error) {
	var parts []string
	if data != "" {
		parts = strings.Split(data, "|")
	}
	want := map[Tag]int{
		TagCategory: 2, TagSubCategory: 2, TagSkin: 2, TagExterior: 2,
		TagSkinType: 3, TagPayment: 2, TagNav: 2, TagBack: 1, TagNoop: 0,
	}
	n, ok := want[Tag(unique)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, unique)
	}
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %s expects %d fields, got %q", ErrMalformed, unique, n, data)
	}

	switch Tag(unique) {
	case TagCategory, TagSubCategory, TagSkin:
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrMalformed, parts[0])
		}
		switch Tag(unique) {
		case TagCategory:
			return Category{ID: id, Action: parts[1]}, nil
		case TagSubCategory:
			return SubCategory{ID: id, Action: parts[1]}, nil
		}
		return Skin{ID: id, Action: parts[1]}, nil
	case TagExterior:
		return Exterior{Name: parts[0], Action: parts[1]}, nil
	case TagSkinType:
		price, err := parsePrice(parts[1])
		if err != nil {
			return nil, err
		}
		return SkinType{Name: parts[0], Price: price, Action: parts[2]}, nil
	case TagPayment:
		return Payment{Method: parts[0], Action: parts[1]}, nil
	case TagNav:
		lv, dir := Level(parts[0]), Direction(parts[1])
		if (lv != LevelSkin && lv != LevelExterior) || (dir != Prev && dir != Next) {
			return nil, fmt.Errorf("%w: nav %q", ErrMalformed, data)
		}
		return Nav{Level: lv, Dir: dir}, nil
	case TagBack:
		return Back{From: parts[0]}, nil
	}
	return Noop{}, nil
}

func parsePrice(s string) (catalog.Price, error) {
	if s == "-" {
		return catalog.Price{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return catalog.Price{}, fmt.Errorf("%w: price %q", ErrMalformed, s)
	}
	return catalog.PriceOf(v), nil
}
