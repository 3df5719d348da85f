package checkout

import (
	"reflect"
	"testing"

	"github.com/m3rciful/skinshop/core/telegram/state"
	"github.com/m3rciful/skinshop/shop/catalog"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/slider"
)

func extSession(t *testing.T, items ...slider.ExteriorItem) Session {
	t.Helper()
	s, err := slider.Build(items, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	skins, _ := slider.Build([]slider.SkinItem{{ID: 1, Name: "AK-47 | Redline"}}, 0)
	return Session{Step: StepExtSlider, CategoryID: 3, SkinSlider: &skins, ExtSlider: &s}
}

func redline(typ string, price, spec catalog.Price) slider.ExteriorItem {
	return slider.ExteriorItem{SkinID: 1, Name: "AK-47 | Redline", Type: typ, Label: "Field-Tested", Price: price, SpecPrice: spec}
}

func mustTransition(t *testing.T, cur Session, ev Event) (Session, []Effect) {
	t.Helper()
	next, effects, ok := Transition(cur, ev)
	if !ok {
		t.Fatalf("%T not applicable in %s", ev, cur.Step)
	}
	return next, effects
}

func TestHappyPathNormalSkin(t *testing.T) {
	s, eff := mustTransition(t, Session{Step: StepIdle}, EnterShop{})
	if s.Step != StepCatalog || !reflect.DeepEqual(eff, []Effect{ShowCategories{}}) {
		t.Fatalf("enter: %+v %+v", s, eff)
	}
	s, eff = mustTransition(t, s, SelectCategory{ID: 3})
	if s.Step != StepCategoryPage || s.CategoryID != 3 || eff[0] != (ShowSubCategories{CategoryID: 3}) {
		t.Fatalf("category: %+v %+v", s, eff)
	}
	s, eff = mustTransition(t, s, SelectSubCategory{ID: 30})
	if s.Step != StepSkinSlider || eff[0] != (BuildSkinSlider{SubCategoryID: 30}) {
		t.Fatalf("sub-category: %+v %+v", s, eff)
	}

	// the orchestrator fills the slider while running BuildSkinSlider
	skins, _ := slider.Build([]slider.SkinItem{{ID: 101}, {ID: 102}}, 0)
	s.SkinSlider = &skins
	s, eff = mustTransition(t, s, SelectSkin{ID: 102})
	if s.Step != StepExtSlider || eff[0] != (BuildExtSlider{SkinID: 102}) {
		t.Fatalf("skin: %+v %+v", s, eff)
	}

	exts, _ := slider.Build([]slider.ExteriorItem{redline(catalog.NormalType, catalog.PriceOf(12.5), catalog.Price{})}, 0)
	s.ExtSlider = &exts
	s, eff = mustTransition(t, s, Buy{Exterior: "Field-Tested"})
	want := Selection{Title: "AK-47 | Redline (Field-Tested)", Type: BasicType, Price: catalog.PriceOf(12.5), Skipped: true}
	if s.Step != StepChoosePaymentMethod || s.Selection != want || eff[0] != (ShowPaymentMethods{}) {
		t.Fatalf("buy: %+v %+v", s, eff)
	}

	s, eff = mustTransition(t, s, ChoosePayment{Method: "sber"})
	inv := SendInvoice{Title: "AK-47 | Redline (Field-Tested)", Type: BasicType, Price: catalog.PriceOf(12.5), Method: "sber"}
	if s.Step != StepPayment || eff[0] != inv {
		t.Fatalf("payment: %+v %+v", s, eff)
	}

	if _, eff = mustTransition(t, s, PreCheckout{}); eff[0] != (ApproveCheckout{}) {
		t.Fatalf("pre-checkout: %+v", eff)
	}
	if _, _, ok := Transition(s, PaymentConfirmed{Payload: "other"}); ok {
		t.Fatal("mismatched payload must not apply")
	}
	s, eff = mustTransition(t, s, PaymentConfirmed{Payload: PaymentPayload})
	if !reflect.DeepEqual(s, Session{Step: StepIdle}) || eff[0] != (SendThanks{}) {
		t.Fatalf("confirmed: %+v %+v", s, eff)
	}
}

func TestBuyPresentsChoiceWhenBothPricesKnown(t *testing.T) {
	s := extSession(t, redline("StatTrak", catalog.PriceOf(12.5), catalog.PriceOf(40)))
	s, eff := mustTransition(t, s, Buy{Exterior: "Field-Tested"})
	want := ShowSkinTypes{Options: []TypeOption{
		{Name: BasicType, Price: catalog.PriceOf(12.5)},
		{Name: "StatTrak", Price: catalog.PriceOf(40)},
	}}
	if s.Step != StepChooseSkinType || !reflect.DeepEqual(eff, []Effect{want}) {
		t.Fatalf("buy: %+v %+v", s, eff)
	}

	for _, opt := range want.Options {
		next, _ := mustTransition(t, s, ChooseType{Name: opt.Name, Price: opt.Price})
		if next.Selection.Type != opt.Name || next.Selection.Price != opt.Price || next.Selection.Skipped {
			t.Fatalf("choose %s: %+v", opt.Name, next.Selection)
		}
		if next.Step != StepChoosePaymentMethod {
			t.Fatalf("choose %s: step %s", opt.Name, next.Step)
		}
	}

	if _, _, ok := Transition(s, ChooseType{Name: "StatTrak", Price: catalog.PriceOf(1)}); ok {
		t.Fatal("a price that differs from the current item must be rejected")
	}
	if _, _, ok := Transition(s, ChooseType{Name: "Souvenir", Price: catalog.PriceOf(40)}); ok {
		t.Fatal("an unknown type must be rejected")
	}
}

func TestResolve(t *testing.T) {
	known, missing := catalog.PriceOf(12.5), catalog.Price{}
	spec := catalog.PriceOf(40)
	cases := []struct {
		name    string
		item    slider.ExteriorItem
		skipped bool
		typ     string
		price   catalog.Price
	}{
		{"normal", redline(catalog.NormalType, known, missing), true, BasicType, known},
		{"normal ignores spec", redline(catalog.NormalType, known, spec), true, BasicType, known},
		{"special without spec", redline("StatTrak", known, missing), true, BasicType, known},
		{"special without basic", redline("Souvenir", missing, spec), true, "Souvenir", spec},
		{"special with both", redline("StatTrak", known, spec), false, "", missing},
		{"special with none", redline("StatTrak", missing, missing), false, "", missing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Resolve(tc.item)
			if r.Skipped != tc.skipped || r.Type != tc.typ || r.Price != tc.price {
				t.Fatalf("Resolve = %+v", r)
			}
			if !r.Skipped && len(r.Options) != 2 {
				t.Fatalf("expected two options, got %+v", r.Options)
			}
		})
	}
}

func TestBuyWithoutPriceShowsUnavailable(t *testing.T) {
	for _, item := range []slider.ExteriorItem{
		redline(catalog.NormalType, catalog.Price{}, catalog.Price{}),
		redline("StatTrak", catalog.Price{}, catalog.Price{}),
	} {
		s := extSession(t, item)
		next, eff := mustTransition(t, s, Buy{Exterior: "Field-Tested"})
		if next.Step != StepExtSlider || !reflect.DeepEqual(eff, []Effect{ShowUnavailable{}}) {
			t.Fatalf("%s: %+v %+v", item.Type, next, eff)
		}
	}
}

func TestBuyStaleExterior(t *testing.T) {
	s := extSession(t, redline(catalog.NormalType, catalog.PriceOf(1), catalog.Price{}))
	if _, _, ok := Transition(s, Buy{Exterior: "Minimal Wear"}); ok {
		t.Fatal("buy button of another page must be ignored")
	}
}

func TestBackFromPaymentMethods(t *testing.T) {
	for _, tc := range []struct {
		item slider.ExteriorItem
		want Step
	}{
		{redline(catalog.NormalType, catalog.PriceOf(12.5), catalog.Price{}), StepExtSlider},
		{redline("StatTrak", catalog.PriceOf(12.5), catalog.PriceOf(40)), StepChooseSkinType},
	} {
		s, _ := mustTransition(t, extSession(t, tc.item), Buy{Exterior: "Field-Tested"})
		if s.Step == StepChooseSkinType {
			s, _ = mustTransition(t, s, ChooseType{Name: "StatTrak", Price: catalog.PriceOf(40)})
		}
		back, eff := mustTransition(t, s, Back{From: StepChoosePaymentMethod})
		if back.Step != tc.want || eff[0] != (DeleteMessage{}) {
			t.Fatalf("back with skipped=%v went to %s", s.Selection.Skipped, back.Step)
		}
		if tc.want == StepChooseSkinType && back.Selection.Title == "" {
			t.Fatal("title must survive the way back to the type choice")
		}
	}
}

func TestBackChain(t *testing.T) {
	s := extSession(t, redline(catalog.NormalType, catalog.PriceOf(1), catalog.Price{}))
	steps := []Step{StepSkinSlider, StepCategoryPage, StepCatalog, StepIdle}
	for _, want := range steps {
		next, eff := mustTransition(t, s, Back{From: s.Step})
		if next.Step != want || eff[0] != (DeleteMessage{}) {
			t.Fatalf("back from %s = %s", s.Step, next.Step)
		}
		s = next
	}
	if s.CategoryID != 0 || s.SkinSlider != nil || s.ExtSlider != nil {
		t.Fatalf("back-out to the root must drop the payload: %+v", s)
	}
}

func TestStaleButtonsAreNoops(t *testing.T) {
	s := extSession(t, redline(catalog.NormalType, catalog.PriceOf(1), catalog.Price{}))
	for _, ev := range []Event{
		Back{From: StepSkinSlider},
		Navigate{Level: cb.LevelSkin, Dir: cb.Next},
		SelectCategory{ID: 1},
		SelectSkin{ID: 1},
		ChoosePayment{Method: "sber"},
		PreCheckout{},
		PaymentConfirmed{Payload: PaymentPayload},
	} {
		if next, eff, ok := Transition(s, ev); ok || eff != nil || next.Step != s.Step {
			t.Fatalf("%T applied in %s", ev, s.Step)
		}
	}
	if _, _, ok := Transition(Session{Step: StepSkinSlider}, Navigate{Level: cb.LevelSkin, Dir: cb.Next}); ok {
		t.Fatal("navigation without a slider must be ignored")
	}
}

func TestNavigate(t *testing.T) {
	s := extSession(t,
		redline(catalog.NormalType, catalog.PriceOf(1), catalog.Price{}),
		redline(catalog.NormalType, catalog.PriceOf(2), catalog.Price{}),
	)
	next, eff := mustTransition(t, s, Navigate{Level: cb.LevelExterior, Dir: cb.Prev})
	if next.ExtSlider.Pos != 1 || eff[0] != (RenderSlider{Level: cb.LevelExterior}) {
		t.Fatalf("navigate: %+v %+v", next.ExtSlider, eff)
	}
	if s.ExtSlider.Pos != 0 {
		t.Fatal("Transition mutated the current session")
	}

	single := extSession(t, redline(catalog.NormalType, catalog.PriceOf(1), catalog.Price{}))
	if _, eff := mustTransition(t, single, Navigate{Level: cb.LevelExterior, Dir: cb.Next}); len(eff) != 0 {
		t.Fatalf("single item navigation must not render, got %+v", eff)
	}
}

func TestInvoiceTitle(t *testing.T) {
	if got := InvoiceTitle("AK-47 | Redline (Field-Tested)", BasicType); got != "AK-47 | Redline (Field-Tested)" {
		t.Fatalf("basic title = %q", got)
	}
	if got := InvoiceTitle("AWP | Asiimov", "StatTrak"); got != "StatTrak AWP | Asiimov" {
		t.Fatalf("special title = %q", got)
	}
}

func TestAmountMinor(t *testing.T) {
	cases := []struct {
		price, rate float64
		want        int64
	}{
		{12.5, 90, 112500},
		{0.1, 3, 30},
		{40, 92.3456, 369382},
	}
	for _, tc := range cases {
		if got := AmountMinor(tc.price, tc.rate); got != tc.want {
			t.Fatalf("AmountMinor(%v, %v) = %d, want %d", tc.price, tc.rate, got, tc.want)
		}
	}
}

func TestSessionStateRoundTrip(t *testing.T) {
	s := extSession(t, redline("StatTrak", catalog.PriceOf(12.5), catalog.PriceOf(40)))
	s.Selection = Selection{Title: "AK-47 | Redline (Field-Tested)", OrderID: "abc"}

	st := state.NewSession()
	if err := ToState(s, st); err != nil {
		t.Fatalf("ToState: %v", err)
	}
	if st.State != state.State(StepExtSlider) {
		t.Fatalf("state tag = %s", st.State)
	}
	got, err := FromState(st)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", got, s)
	}

	if err := ToState(Session{Step: StepIdle}, st); err != nil {
		t.Fatalf("ToState: %v", err)
	}
	if len(st.Data) != 0 || st.State != state.StateIdle {
		t.Fatalf("reset must clear the payload: %+v", st)
	}
}

func TestFromStateDropsInvalidSlider(t *testing.T) {
	st := state.NewSession()
	st.State = state.State(StepSkinSlider)
	_ = st.Encode("skin_slider", map[string]any{"items": []any{}, "pos": 3})
	got, err := FromState(st)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if got.SkinSlider != nil {
		t.Fatalf("invalid slider kept: %+v", got.SkinSlider)
	}
}
