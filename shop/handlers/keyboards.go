package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skinshop/core/telegram/keyboard"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/checkout"
	"github.com/m3rciful/skinshop/shop/slider"
)

func button(text string, c cb.Callback) keyboard.InlineBtn {
	unique, data := cb.Encode(c)
	return keyboard.InlineBtn{Text: text, Unique: unique, Data: data}
}

func backButton(from checkout.Step) keyboard.InlineBtn {
	return button(btnBack, cb.Back{From: string(from)})
}

var padButton = button(btnPad, cb.Noop{})

// menuRows lays out buttons two per row, padding an odd last row, with the
// back button on its own row.
func menuRows(buttons []keyboard.InlineBtn, back checkout.Step) [][]keyboard.InlineBtn {
	pad := padButton
	rows := keyboard.ChunkRows(buttons, 2, &pad)
	return append(rows, []keyboard.InlineBtn{backButton(back)})
}

func categoriesKeyboard(cats []catalog.Category) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, len(cats))
	for i, c := range cats {
		buttons[i] = button(c.Name, cb.Category{ID: c.ID, Action: "view"})
	}
	return keyboard.InlineButtonsRows(menuRows(buttons, checkout.StepCatalog)...)
}

func subCategoriesKeyboard(subs []catalog.SubCategory) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, len(subs))
	for i, s := range subs {
		buttons[i] = button(s.Name, cb.SubCategory{ID: s.ID, Action: "view"})
	}
	return keyboard.InlineButtonsRows(menuRows(buttons, checkout.StepCategoryPage)...)
}

func sliderKeyboard(v slider.View) *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		button(btnLeft, v.Prev),
		button(v.Position, cb.Noop{}),
		button(btnRight, v.Next),
		button(btnBuy, v.Buy),
		button(btnBack, v.Back),
	}, 3)
}

func skinTypesKeyboard(opts []checkout.TypeOption) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(opts)+1)
	for _, o := range opts {
		buttons = append(buttons, button(o.Name, cb.SkinType{Name: o.Name, Price: o.Price, Action: "choose"}))
	}
	buttons = append(buttons, backButton(checkout.StepChooseSkinType))
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

func paymentKeyboard(methods []PaymentMethod) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(methods)+1)
	for _, m := range methods {
		buttons = append(buttons, button(m.Label, cb.Payment{Method: m.Name, Action: "choose"}))
	}
	buttons = append(buttons, backButton(checkout.StepChoosePaymentMethod))
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}
