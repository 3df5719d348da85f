package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/skinshop/core/telegram/helpers"
	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/checkout"
	"github.com/m3rciful/skinshop/shop/flow"
	"github.com/m3rciful/skinshop/shop/slider"
)

// chatUI renders shop screens into the chat of one update. Text screens go
// through the async sender; photos, edits, deletes and invoices are sent
// inline so their errors reach the flow.
type chatUI struct {
	c       tele.Context
	methods []PaymentMethod
	invoice InvoiceOptions
}

var _ flow.UI = chatUI{}

func (u chatUI) Categories(_ context.Context, cats []catalog.Category) error {
	return tghelpers.SendText(u.c, textCategories, categoriesKeyboard(cats))
}

func (u chatUI) SubCategories(_ context.Context, subs []catalog.SubCategory) error {
	return tghelpers.SendText(u.c, textSubCategories, subCategoriesKeyboard(subs))
}

func sliderPhoto(v slider.View) (*tele.Photo, *tele.SendOptions) {
	photo := &tele.Photo{File: tele.FromURL(v.Image), Caption: v.Caption}
	return photo, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: sliderKeyboard(v)}
}

func (u chatUI) SendSlider(_ context.Context, v slider.View) error {
	photo, opts := sliderPhoto(v)
	return u.c.Send(photo, opts)
}

func (u chatUI) EditSlider(_ context.Context, v slider.View) error {
	if !u.hasMessage() {
		return flow.ErrMessageInaccessible
	}
	photo, opts := sliderPhoto(v)
	return messageGone(u.c.Edit(photo, opts))
}

func (u chatUI) Delete(context.Context) error {
	if !u.hasMessage() {
		return flow.ErrMessageInaccessible
	}
	return messageGone(u.c.Delete())
}

func (u chatUI) SkinTypes(_ context.Context, opts []checkout.TypeOption) error {
	return tghelpers.SendText(u.c, textSkinTypes, skinTypesKeyboard(opts))
}

func (u chatUI) PaymentMethods(_ context.Context, names []string) error {
	shown := make([]PaymentMethod, 0, len(names))
	for _, name := range names {
		if m, ok := findMethod(u.methods, name); ok {
			shown = append(shown, m)
		}
	}
	return tghelpers.SendText(u.c, textPaymentMethods, paymentKeyboard(shown))
}

func (u chatUI) Unavailable(context.Context) error {
	return tghelpers.SendText(u.c, textUnavailable)
}

func (u chatUI) Invoice(_ context.Context, inv flow.Invoice) error {
	m, ok := findMethod(u.methods, inv.Method)
	if !ok {
		return fmt.Errorf("handlers: no provider token for method %q", inv.Method)
	}
	return u.c.Send(buildInvoice(inv, m.Token, u.invoice))
}

func buildInvoice(inv flow.Invoice, token string, opts InvoiceOptions) *tele.Invoice {
	return &tele.Invoice{
		Title:       inv.Title,
		Description: opts.Description,
		Payload:     inv.Payload,
		Currency:    inv.Currency,
		Token:       token,
		Start:       opts.StartParameter,
		Prices:      []tele.Price{{Label: inv.Title, Amount: int(inv.Amount)}},
		NeedEmail:   true,
	}
}

func (u chatUI) AnswerCheckout(_ context.Context, reason string) error {
	if reason == "" {
		return u.c.Accept()
	}
	return u.c.Accept(reason)
}

func (u chatUI) Thanks(context.Context) error {
	return tghelpers.SendText(u.c, textThanks)
}

func (u chatUI) Failure(context.Context) error {
	return tghelpers.SendText(u.c, textFailure)
}

func (u chatUI) hasMessage() bool {
	cb := u.c.Callback()
	return cb != nil && cb.Message != nil
}

func findMethod(methods []PaymentMethod, name string) (PaymentMethod, bool) {
	for _, m := range methods {
		if m.Name == name {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

var goneDescriptions = []string{
	"message to edit not found",
	"message to delete not found",
	"message can't be edited",
	"message can't be deleted",
}

// messageGone maps Telegram errors about a vanished or frozen message to
// flow.ErrMessageInaccessible.
func messageGone(err error) error {
	var tgErr *tele.Error
	if err == nil || !errors.As(err, &tgErr) || tgErr.Code != http.StatusBadRequest {
		return err
	}
	desc := strings.ToLower(tgErr.Description)
	for _, s := range goneDescriptions {
		if strings.Contains(desc, s) {
			return fmt.Errorf("%w: %s", flow.ErrMessageInaccessible, tgErr.Description)
		}
	}
	return err
}
