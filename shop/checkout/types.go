// Package checkout is the shop conversation: the steps a user walks through
// from the catalog to a paid invoice, and the pure transition function
// between them.
package checkout

import (
	"github.com/m3rciful/skinshop/shop/catalog"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/slider"
)

// Step is the persisted state tag of a shop session.
type Step string

const (
	StepIdle                Step = "idle"
	StepCatalog             Step = "catalog"
	StepCategoryPage        Step = "category_page"
	StepSkinSlider          Step = Step(cb.LevelSkin)
	StepExtSlider           Step = Step(cb.LevelExterior)
	StepChooseSkinType      Step = "choose_skin_type"
	StepChoosePaymentMethod Step = "choose_payment_method"
	StepPayment             Step = "payment"
)

const (
	// BasicType is the buy type of the non-special variant.
	BasicType = "Basic"
	// PaymentPayload is the invoice payload echoed back on successful payment.
	PaymentPayload = "payment"
)

// Selection is what the user is about to buy.
type Selection struct {
	Title string        `json:"title,omitempty"`
	Type  string        `json:"type,omitempty"`
	Price catalog.Price `json:"price"`
	// Skipped is set when the type choice screen was not shown.
	Skipped bool   `json:"skipped,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// Session is the typed view of a user's shop conversation.
type Session struct {
	Step       Step
	CategoryID int64
	SkinSlider *slider.Slider[slider.SkinItem]
	ExtSlider  *slider.Slider[slider.ExteriorItem]
	Selection  Selection
}

// Event is an inbound user action.
type Event interface{ event() }

type (
	EnterShop         struct{}
	SelectCategory    struct{ ID int64 }
	SelectSubCategory struct{ ID int64 }
	SelectSkin        struct{ ID int64 }
	Navigate          struct {
		Level cb.Level
		Dir   cb.Direction
	}
	// Back carries the step its button was rendered for.
	Back struct{ From Step }
	// Buy carries the exterior label of the page its button was rendered on.
	Buy        struct{ Exterior string }
	ChooseType struct {
		Name  string
		Price catalog.Price
	}
	ChoosePayment    struct{ Method string }
	PreCheckout      struct{}
	PaymentConfirmed struct{ Payload string }
)

func (EnterShop) event()         {}
func (SelectCategory) event()    {}
func (SelectSubCategory) event() {}
func (SelectSkin) event()        {}
func (Navigate) event()          {}
func (Back) event()              {}
func (Buy) event()               {}
func (ChooseType) event()        {}
func (ChoosePayment) event()     {}
func (PreCheckout) event()       {}
func (PaymentConfirmed) event()  {}

// Effect is a side effect requested by a transition, executed in order.
type Effect interface{ effect() }

// TypeOption is one button of the type choice screen.
type TypeOption struct {
	Name  string
	Price catalog.Price
}

type (
	ShowCategories    struct{}
	ShowSubCategories struct{ CategoryID int64 }
	// BuildSkinSlider loads the skins of a sub-category into the next
	// session and sends the first page.
	BuildSkinSlider struct{ SubCategoryID int64 }
	// BuildExtSlider loads the exteriors, images and prices of a skin into
	// the next session and sends the first page.
	BuildExtSlider struct{ SkinID int64 }
	// RenderSlider redraws the current page of a slider in place.
	RenderSlider       struct{ Level cb.Level }
	DeleteMessage      struct{}
	ShowSkinTypes      struct{ Options []TypeOption }
	ShowPaymentMethods struct{}
	// ShowUnavailable tells the user the current item has no price to pay.
	ShowUnavailable struct{}
	SendInvoice     struct {
		Title  string
		Type   string
		Price  catalog.Price
		Method string
	}
	ApproveCheckout struct{}
	SendThanks      struct{}
)

func (ShowCategories) effect()     {}
func (ShowSubCategories) effect()  {}
func (BuildSkinSlider) effect()    {}
func (BuildExtSlider) effect()     {}
func (RenderSlider) effect()       {}
func (DeleteMessage) effect()      {}
func (ShowSkinTypes) effect()      {}
func (ShowPaymentMethods) effect() {}
func (ShowUnavailable) effect()    {}
func (SendInvoice) effect()        {}
func (ApproveCheckout) effect()    {}
func (SendThanks) effect()         {}
