package handlers

import (
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/checkout"
)

// eventFor maps a decoded button payload to a checkout event. Placeholders
// and unknown actions map to nil.
func eventFor(c cb.Callback) checkout.Event {
	switch v := c.(type) {
	case cb.Category:
		if v.Action == "view" {
			return checkout.SelectCategory{ID: v.ID}
		}
	case cb.SubCategory:
		if v.Action == "view" {
			return checkout.SelectSubCategory{ID: v.ID}
		}
	case cb.Skin:
		if v.Action == "view" {
			return checkout.SelectSkin{ID: v.ID}
		}
	case cb.Exterior:
		if v.Action == "buy" {
			return checkout.Buy{Exterior: v.Name}
		}
	case cb.SkinType:
		if v.Action == "choose" {
			return checkout.ChooseType{Name: v.Name, Price: v.Price}
		}
	case cb.Payment:
		if v.Action == "choose" {
			return checkout.ChoosePayment{Method: v.Method}
		}
	case cb.Nav:
		return checkout.Navigate{Level: v.Level, Dir: v.Dir}
	case cb.Back:
		return checkout.Back{From: checkout.Step(v.From)}
	}
	return nil
}
