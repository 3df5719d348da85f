package flow

import (
	"context"
	"errors"

	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/checkout"
	"github.com/m3rciful/skinshop/shop/slider"
)

// ErrMessageInaccessible is returned by UI methods acting on the message
// that carried the pressed button when it no longer exists or is too old.
var ErrMessageInaccessible = errors.New("flow: message inaccessible")

// Invoice is the payment request sent for a selection.
type Invoice struct {
	OrderID  string
	Title    string
	Type     string
	Method   string
	Currency string
	// Amount is in minor units of Currency.
	Amount  int64
	Payload string
}

// UI renders shop screens for one chat.
type UI interface {
	Categories(ctx context.Context, cats []catalog.Category) error
	SubCategories(ctx context.Context, subs []catalog.SubCategory) error
	SendSlider(ctx context.Context, v slider.View) error
	// EditSlider replaces the photo, caption and keyboard of the pressed message.
	EditSlider(ctx context.Context, v slider.View) error
	// Delete removes the pressed message.
	Delete(ctx context.Context) error
	SkinTypes(ctx context.Context, opts []checkout.TypeOption) error
	PaymentMethods(ctx context.Context, methods []string) error
	Unavailable(ctx context.Context) error
	Invoice(ctx context.Context, inv Invoice) error
	// AnswerCheckout approves the pending pre-checkout query, or rejects it
	// with reason when reason is not empty.
	AnswerCheckout(ctx context.Context, reason string) error
	Thanks(ctx context.Context) error
	// Failure tells the user to try again later.
	Failure(ctx context.Context) error
}

// CheckoutPolicy decides whether a pre-checkout query is approved. A
// non-nil error rejects it; the error text is shown to the user.
type CheckoutPolicy interface {
	Approve(ctx context.Context, userID int64, sel checkout.Selection) error
}

// ApproveAll accepts every checkout.
type ApproveAll struct{}

func (ApproveAll) Approve(context.Context, int64, checkout.Selection) error { return nil }
