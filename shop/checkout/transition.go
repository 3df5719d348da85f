package checkout

import (
	"math"
	"slices"

	"github.com/m3rciful/skinshop/shop/catalog"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/slider"
)

// Transition returns the session after ev and the effects to run.
// ok is false when ev does not apply to the current step (a misrouted or
// stale button); the caller then does nothing.
func Transition(cur Session, ev Event) (next Session, effects []Effect, ok bool) {
	if _, enter := ev.(EnterShop); enter {
		return Session{Step: StepCatalog}, []Effect{ShowCategories{}}, true
	}

	next = cur
	switch cur.Step {
	case StepCatalog:
		switch e := ev.(type) {
		case SelectCategory:
			next.Step, next.CategoryID = StepCategoryPage, e.ID
			return next, []Effect{ShowSubCategories{CategoryID: e.ID}}, true
		case Back:
			if e.From == StepCatalog {
				return Session{Step: StepIdle}, []Effect{DeleteMessage{}}, true
			}
		}

	case StepCategoryPage:
		switch e := ev.(type) {
		case SelectSubCategory:
			next.Step = StepSkinSlider
			return next, []Effect{BuildSkinSlider{SubCategoryID: e.ID}}, true
		case Back:
			if e.From == StepCategoryPage {
				return Session{Step: StepCatalog}, []Effect{DeleteMessage{}}, true
			}
		}

	case StepSkinSlider:
		if cur.SkinSlider == nil {
			break
		}
		switch e := ev.(type) {
		case Navigate:
			if e.Level != cb.LevelSkin {
				break
			}
			s, moved := cur.SkinSlider.Advance(e.Dir)
			if !moved {
				return cur, nil, true
			}
			next.SkinSlider = &s
			return next, []Effect{RenderSlider{Level: cb.LevelSkin}}, true
		case SelectSkin:
			if !slices.ContainsFunc(cur.SkinSlider.Items, func(it slider.SkinItem) bool { return it.ID == e.ID }) {
				break
			}
			next.Step = StepExtSlider
			return next, []Effect{BuildExtSlider{SkinID: e.ID}}, true
		case Back:
			if e.From == StepSkinSlider {
				next.Step, next.SkinSlider = StepCategoryPage, nil
				return next, []Effect{DeleteMessage{}}, true
			}
		}

	case StepExtSlider:
		if cur.ExtSlider == nil {
			break
		}
		switch e := ev.(type) {
		case Navigate:
			if e.Level != cb.LevelExterior {
				break
			}
			s, moved := cur.ExtSlider.Advance(e.Dir)
			if !moved {
				return cur, nil, true
			}
			next.ExtSlider = &s
			return next, []Effect{RenderSlider{Level: cb.LevelExterior}}, true
		case Buy:
			return buy(cur, e)
		case Back:
			if e.From == StepExtSlider {
				next.Step, next.ExtSlider, next.Selection = StepSkinSlider, nil, Selection{}
				return next, []Effect{DeleteMessage{}}, true
			}
		}

	case StepChooseSkinType:
		if cur.ExtSlider == nil {
			break
		}
		switch e := ev.(type) {
		case ChooseType:
			opt, found := findOption(Resolve(cur.ExtSlider.Current()).Options, e.Name)
			if !found || opt.Price != e.Price || opt.Price.Missing() {
				break
			}
			next.Step = StepChoosePaymentMethod
			next.Selection.Type, next.Selection.Price, next.Selection.Skipped = opt.Name, opt.Price, false
			return next, []Effect{ShowPaymentMethods{}}, true
		case Back:
			if e.From == StepChooseSkinType {
				next.Step, next.Selection = StepExtSlider, Selection{}
				return next, []Effect{DeleteMessage{}}, true
			}
		}

	case StepChoosePaymentMethod:
		switch e := ev.(type) {
		case ChoosePayment:
			if e.Method == "" || cur.Selection.Price.Missing() {
				break
			}
			next.Step = StepPayment
			sel := cur.Selection
			return next, []Effect{SendInvoice{
				Title:  InvoiceTitle(sel.Title, sel.Type),
				Type:   sel.Type,
				Price:  sel.Price,
				Method: e.Method,
			}}, true
		case Back:
			if e.From != StepChoosePaymentMethod {
				break
			}
			if cur.Selection.Skipped {
				next.Step, next.Selection = StepExtSlider, Selection{}
			} else {
				next.Step = StepChooseSkinType
				next.Selection = Selection{Title: cur.Selection.Title}
			}
			return next, []Effect{DeleteMessage{}}, true
		}

	case StepPayment:
		switch e := ev.(type) {
		case PreCheckout:
			return cur, []Effect{ApproveCheckout{}}, true
		case PaymentConfirmed:
			if e.Payload == PaymentPayload {
				return Session{Step: StepIdle}, []Effect{SendThanks{}}, true
			}
		}
	}
	return cur, nil, false
}

func buy(cur Session, e Buy) (Session, []Effect, bool) {
	item := cur.ExtSlider.Current()
	if item.Select() != (cb.Exterior{Name: e.Exterior, Action: "buy"}) {
		return cur, nil, false
	}
	res := Resolve(item)
	if !res.Purchasable() {
		return cur, []Effect{ShowUnavailable{}}, true
	}

	next := cur
	next.Selection = Selection{Title: item.Title()}
	if res.Skipped {
		next.Step = StepChoosePaymentMethod
		next.Selection.Type, next.Selection.Price, next.Selection.Skipped = res.Type, res.Price, true
		return next, []Effect{ShowPaymentMethods{}}, true
	}
	next.Step = StepChooseSkinType
	return next, []Effect{ShowSkinTypes{Options: res.Options}}, true
}

func findOption(opts []TypeOption, name string) (TypeOption, bool) {
	for _, o := range opts {
		if o.Name == name {
			return o, true
		}
	}
	return TypeOption{}, false
}

// Resolution is the outcome of the buy rule for one exterior item.
type Resolution struct {
	// Skipped is set when the type is unambiguous; Type and Price then hold it.
	Skipped bool
	Type    string
	Price   catalog.Price
	// Options are the two choices when the type is ambiguous.
	Options []TypeOption
}

// Purchasable reports whether the resolution leads to a payable price.
func (r Resolution) Purchasable() bool {
	if r.Skipped {
		return !r.Price.Missing()
	}
	return slices.ContainsFunc(r.Options, func(o TypeOption) bool { return !o.Price.Missing() })
}

// Resolve applies the buy rule: Normal skins, and skins with exactly one of
// the two prices missing, skip the type choice. The type is Basic when the
// special price is missing and the skin's special type otherwise.
func Resolve(item slider.ExteriorItem) Resolution {
	basicMissing, specMissing := item.Price.Missing(), item.SpecPrice.Missing()
	if item.IsNormal() || basicMissing != specMissing {
		if specMissing {
			return Resolution{Skipped: true, Type: BasicType, Price: item.Price}
		}
		return Resolution{Skipped: true, Type: item.Type, Price: item.SpecPrice}
	}
	return Resolution{Options: []TypeOption{
		{Name: BasicType, Price: item.Price},
		{Name: item.Type, Price: item.SpecPrice},
	}}
}

// InvoiceTitle prefixes the title with the buy type unless it is Basic.
func InvoiceTitle(title, typ string) string {
	if typ == "" || typ == BasicType {
		return title
	}
	return typ + " " + title
}

// AmountMinor converts a base currency price into minor units of the
// invoice currency: price times rate, rounded to cents, times 100.
func AmountMinor(price, rate float64) int64 {
	cents := math.Round(price*rate*100) / 100
	return int64(math.Round(cents * 100))
}
