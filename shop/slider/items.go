package slider

import (
	"fmt"
	"strings"

	"github.com/m3rciful/skinshop/core/telegram/format"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/catalog"
)

// NoExterior is the label of items sold without a wear condition.
const NoExterior = "none"

const starPrefix = "★ "

var exteriorLabels = map[string]string{
	"fn": "Factory New",
	"mw": "Minimal Wear",
	"ft": "Field-Tested",
	"ww": "Well-Worn",
	"bs": "Battle-Scarred",
}

var exteriorCodes = map[string]string{
	"Factory New":    "fn",
	"Minimal Wear":   "mw",
	"Field-Tested":   "ft",
	"Well-Worn":      "ww",
	"Battle-Scarred": "bs",
}

// ExteriorLabel maps an exterior code to its display name; unknown codes are "none".
func ExteriorLabel(code string) string {
	if l, ok := exteriorLabels[strings.ToLower(strings.TrimSpace(code))]; ok {
		return l
	}
	return NoExterior
}

// ExteriorCode maps a display name back to its code.
func ExteriorCode(label string) (string, bool) {
	c, ok := exteriorCodes[label]
	return c, ok
}

// ProviderName is the skin name as the price provider spells it.
func ProviderName(s catalog.Skin) string {
	if s.StarPrefix {
		return starPrefix + s.Name
	}
	return s.Name
}

// SkinItem is one page of the skin slider.
type SkinItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

func (it SkinItem) ImageRef() string { return it.Image }

// Caption is the skin name followed by the first sentence of its description.
func (it SkinItem) Caption() string {
	head := format.Code(it.Name)
	if s := firstSentence(it.Description); s != "" {
		return head + "\n\n" + format.Escape(s)
	}
	return head
}

func (it SkinItem) Select() cb.Callback { return cb.Skin{ID: it.ID, Action: "view"} }

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i+1]
	}
	return s + "."
}

// SkinItems converts catalog skins, keeping their order.
func SkinItems(skins []catalog.Skin) []SkinItem {
	items := make([]SkinItem, len(skins))
	for i, s := range skins {
		items[i] = SkinItem{ID: s.ID, Name: s.Name, Image: s.Image, Description: s.Description}
	}
	return items
}

// ExteriorItem is one page of the exterior slider.
type ExteriorItem struct {
	SkinID int64  `json:"skin_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	// Label is the exterior display name or "none".
	Label     string        `json:"label"`
	Image     string        `json:"image"`
	Price     catalog.Price `json:"price"`
	SpecPrice catalog.Price `json:"spec_price"`
}

func (it ExteriorItem) ImageRef() string { return it.Image }

// IsNormal reports whether the skin has no special variant.
func (it ExteriorItem) IsNormal() bool { return it.Type == catalog.NormalType }

// Title is the skin name qualified by the exterior.
func (it ExteriorItem) Title() string {
	if it.Label == "" || it.Label == NoExterior {
		return it.Name
	}
	return fmt.Sprintf("%s (%s)", it.Name, it.Label)
}

// Caption shows the title and one price line for Normal skins, or the basic
// and special prices on two aligned lines.
func (it ExteriorItem) Caption() string {
	var prices string
	if it.IsNormal() {
		prices = format.Bold("Price: ") + format.Italic(dollars(it.Price))
	} else {
		prices = format.Bold(fmt.Sprintf("%-13s", "Basic:")) + format.Italic(dollars(it.Price)) +
			"\n\n" +
			format.Bold(fmt.Sprintf("%-9s", it.Type+": ")) + format.Italic(dollars(it.SpecPrice))
	}
	return format.Code(it.Title()) + "\n\n" + prices
}

func (it ExteriorItem) Select() cb.Callback {
	label := it.Label
	if label == "" {
		label = NoExterior
	}
	return cb.Exterior{Name: label, Action: "buy"}
}

func dollars(p catalog.Price) string {
	if p.Missing() {
		return p.String()
	}
	return "$" + p.String()
}

// ExteriorItems builds the exterior pages of skin. images maps exterior
// labels to image URLs in provider order; prices maps provider price ids to
// amounts. An exterior-less record takes the first provider image and ends
// the list. The special price is ignored for Normal skins.
func ExteriorItems(skin catalog.Skin, exteriors []catalog.Exterior, images []catalog.ExteriorImage, prices map[int64]float64) []ExteriorItem {
	byLabel := make(map[string]string, len(images))
	for _, img := range images {
		if _, seen := byLabel[img.Exterior]; !seen {
			byLabel[img.Exterior] = img.URL
		}
	}

	items := make([]ExteriorItem, 0, len(exteriors))
	for _, ext := range exteriors {
		it := ExteriorItem{
			SkinID: skin.ID,
			Name:   skin.Name,
			Type:   skin.Type,
			Label:  ExteriorLabel(ext.Code),
			Image:  skin.Image,
			Price:  lookupPrice(prices, ext.PriceID),
		}
		if !skin.IsNormal() {
			it.SpecPrice = lookupPrice(prices, ext.SpecPriceID)
		}
		if it.Label == NoExterior {
			if len(images) > 0 && images[0].URL != "" {
				it.Image = images[0].URL
			}
			return append(items, it)
		}
		if url := byLabel[it.Label]; url != "" {
			it.Image = url
		}
		items = append(items, it)
	}
	return items
}

func lookupPrice(prices map[int64]float64, id *int64) catalog.Price {
	if id == nil {
		return catalog.Price{}
	}
	if v, ok := prices[*id]; ok {
		return catalog.PriceOf(v)
	}
	return catalog.Price{}
}
