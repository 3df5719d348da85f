package checkout

import (
	"github.com/m3rciful/skinshop/core/telegram/state"
	"github.com/m3rciful/skinshop/shop/slider"
)

const (
	keyCategory   = "cat_id"
	keySkinSlider = "skin_slider"
	keyExtSlider  = "ext_slider"
	keySelection  = "selection"
)

// FromState decodes the typed session from a stored record. Sliders whose
// cursor is out of range are dropped.
func FromState(st *state.Session) (Session, error) {
	s := Session{Step: Step(st.State)}
	if s.Step == "" {
		s.Step = StepIdle
	}
	if _, err := st.Decode(keyCategory, &s.CategoryID); err != nil {
		return Session{}, err
	}

	var skins slider.Slider[slider.SkinItem]
	if ok, err := st.Decode(keySkinSlider, &skins); err != nil {
		return Session{}, err
	} else if ok && skins.Valid() {
		s.SkinSlider = &skins
	}
	var exts slider.Slider[slider.ExteriorItem]
	if ok, err := st.Decode(keyExtSlider, &exts); err != nil {
		return Session{}, err
	} else if ok && exts.Valid() {
		s.ExtSlider = &exts
	}

	if _, err := st.Decode(keySelection, &s.Selection); err != nil {
		return Session{}, err
	}
	return s, nil
}

// ToState writes s into the stored record, keeping its version.
func ToState(s Session, st *state.Session) error {
	st.State = state.State(s.Step)

	var category any
	if s.CategoryID != 0 {
		category = s.CategoryID
	}
	var selection any
	if s.Selection != (Selection{}) {
		selection = s.Selection
	}
	for key, v := range map[string]any{
		keyCategory:   category,
		keySkinSlider: nilIfEmpty(s.SkinSlider),
		keyExtSlider:  nilIfEmpty(s.ExtSlider),
		keySelection:  selection,
	} {
		if err := st.Encode(key, v); err != nil {
			return err
		}
	}
	return nil
}

func nilIfEmpty[T any](p *slider.Slider[T]) any {
	if p == nil {
		return nil
	}
	return p
}
