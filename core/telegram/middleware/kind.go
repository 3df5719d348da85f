package middleware

import tele "gopkg.in/telebot.v4"

// Update kinds used for logging, metrics and rate limit exclusions.
const (
	KindCallback    = "callback"
	KindMessage     = "message"
	KindCheckout    = "checkout"
	KindPayment     = "payment"
	KindInlineQuery = "inline_query"
	KindOther       = "other"
)

// UpdateKind classifies an update. Successful payments are reported
// separately from plain messages.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return KindCallback
	case upd.PreCheckoutQuery != nil:
		return KindCheckout
	case upd.Message != nil && upd.Message.Payment != nil:
		return KindPayment
	case upd.Message != nil:
		return KindMessage
	case upd.Query != nil:
		return KindInlineQuery
	}
	return KindOther
}
