// Package flow runs checkout transitions for one user at a time: it loads
// the stored session, applies the event, executes the requested effects
// against the catalog, the pricing provider and the chat UI, and saves the
// result.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/skinshop/core/logger"
	"github.com/m3rciful/skinshop/core/telegram/state"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/checkout"
	"github.com/m3rciful/skinshop/shop/metrics"
	"github.com/m3rciful/skinshop/shop/pricing"
	"github.com/m3rciful/skinshop/shop/slider"
)

// Catalog is the read side of the catalog repository.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListSubCategories(ctx context.Context, categoryID int64) ([]catalog.SubCategory, error)
	ListSkins(ctx context.Context, subCategoryID int64) ([]catalog.Skin, error)
	GetSkin(ctx context.Context, id int64) (catalog.Skin, error)
	ListExteriors(ctx context.Context, skinID int64) ([]catalog.Exterior, error)
}

// Pricing supplies images, prices and exchange rates.
type Pricing interface {
	Lookup(ctx context.Context, skinName string, ids []*int64) ([]catalog.ExteriorImage, map[int64]float64, error)
	ExchangeRate(ctx context.Context, currency string) (float64, error)
}

// Options configures a Machine.
type Options struct {
	Store   state.Store
	Catalog Catalog
	Pricing Pricing
	// Policy approves pre-checkout queries; nil approves all.
	Policy CheckoutPolicy
	// Methods lists the accepted payment methods in display order.
	Methods []string
	// Currency is the invoice currency.
	Currency string
	// NewOrderID defaults to random UUIDs.
	NewOrderID func() string
}

// Machine is safe for concurrent use.
type Machine struct {
	store      state.Store
	catalog    Catalog
	pricing    Pricing
	policy     CheckoutPolicy
	methods    []string
	currency   string
	newOrderID func() string
	locks      *keyedMutex
}

// New validates opts and returns a Machine.
func New(opts Options) (*Machine, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("flow: session store is required")
	case opts.Catalog == nil:
		return nil, errors.New("flow: catalog is required")
	case opts.Pricing == nil:
		return nil, errors.New("flow: pricing is required")
	case len(opts.Methods) == 0:
		return nil, errors.New("flow: at least one payment method is required")
	}
	m := &Machine{
		store:      opts.Store,
		catalog:    opts.Catalog,
		pricing:    opts.Pricing,
		policy:     opts.Policy,
		methods:    slices.Clone(opts.Methods),
		currency:   strings.ToUpper(strings.TrimSpace(opts.Currency)),
		newOrderID: opts.NewOrderID,
		locks:      newKeyedMutex(),
	}
	if m.policy == nil {
		m.policy = ApproveAll{}
	}
	if m.currency == "" {
		m.currency = "RUB"
	}
	if m.newOrderID == nil {
		m.newOrderID = func() string { return uuid.NewString() }
	}
	return m, nil
}

// Methods returns the accepted payment methods.
func (m *Machine) Methods() []string { return slices.Clone(m.methods) }

// Handle applies ev to the session of userID. Events that do not apply to
// the current step are dropped. Missing catalog data is reported to the user
// and leaves the session untouched; other errors are returned.
func (m *Machine) Handle(ctx context.Context, userID int64, ev checkout.Event, ui UI) error {
	unlock := m.locks.Lock(userID)
	defer unlock()

	start := time.Now()
	name := EventName(ev)

	stored, err := m.store.Get(ctx, userID)
	if err != nil {
		metrics.HandlerErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("flow: load session: %w", err)
	}
	cur, err := checkout.FromState(stored)
	if err != nil {
		logger.LogEvent(ctx, logger.Checkout, slog.LevelWarn, "checkout.session_reset",
			slog.String("err", err.Error()),
		)
		cur = checkout.Session{Step: checkout.StepIdle}
	}

	if p, ok := ev.(checkout.ChoosePayment); ok && !slices.Contains(m.methods, p.Method) {
		m.ignored(ctx, name, cur.Step)
		return nil
	}

	next, effects, ok := checkout.Transition(cur, ev)
	if !ok {
		m.ignored(ctx, name, cur.Step)
		return nil
	}
	if len(effects) == 0 {
		return nil
	}

	next, err = m.run(ctx, userID, cur, next, effects, ui)
	if err != nil {
		if errors.Is(err, catalog.ErrDataRetrieval) || errors.Is(err, slider.ErrEmptySequence) {
			metrics.HandlerErrors.WithLabelValues("data").Inc()
			logger.LogEvent(ctx, logger.Checkout, slog.LevelWarn, "checkout.data_missing",
				slog.String("ev", name),
				slog.String("step", string(cur.Step)),
				slog.String("err", err.Error()),
			)
			return ui.Failure(ctx)
		}
		metrics.HandlerErrors.WithLabelValues(errorKind(err)).Inc()
		return fmt.Errorf("flow: %s in %s: %w", name, cur.Step, err)
	}

	if err := checkout.ToState(next, stored); err != nil {
		return fmt.Errorf("flow: encode session: %w", err)
	}
	if err := m.store.Save(ctx, userID, stored); err != nil {
		if errors.Is(err, state.ErrConflict) {
			metrics.HandlerErrors.WithLabelValues("conflict").Inc()
			logger.LogEvent(ctx, logger.Checkout, slog.LevelWarn, "checkout.conflict",
				slog.String("ev", name),
				slog.String("step", string(cur.Step)),
			)
			return nil
		}
		metrics.HandlerErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("flow: save session: %w", err)
	}

	metrics.Transitions.WithLabelValues(name, string(next.Step)).Inc()
	logger.LogEvent(ctx, logger.Checkout, slog.LevelInfo, "checkout.transition",
		slog.String("ev", name),
		slog.String("from", string(cur.Step)),
		slog.String("to", string(next.Step)),
		slog.Int("effects", len(effects)),
		slog.Duration("took", logger.Took(start)),
	)
	return nil
}

func (m *Machine) ignored(ctx context.Context, name string, step checkout.Step) {
	metrics.Ignored.WithLabelValues(name, string(step)).Inc()
	logger.LogEvent(ctx, logger.Checkout, slog.LevelDebug, "checkout.ignored",
		slog.String("ev", name),
		slog.String("step", string(step)),
	)
}

// run executes effects in order, filling next with built sliders and the order id.
func (m *Machine) run(ctx context.Context, userID int64, cur, next checkout.Session, effects []checkout.Effect, ui UI) (checkout.Session, error) {
	for _, eff := range effects {
		var err error
		switch e := eff.(type) {
		case checkout.ShowCategories:
			err = m.showCategories(ctx, ui)
		case checkout.ShowSubCategories:
			err = m.showSubCategories(ctx, e.CategoryID, ui)
		case checkout.BuildSkinSlider:
			next.SkinSlider, err = m.buildSkinSlider(ctx, e.SubCategoryID, ui)
		case checkout.BuildExtSlider:
			next.ExtSlider, err = m.buildExtSlider(ctx, e.SkinID, ui)
		case checkout.RenderSlider:
			err = renderSlider(ctx, next, e.Level, ui)
		case checkout.DeleteMessage:
			if err = ui.Delete(ctx); errors.Is(err, ErrMessageInaccessible) {
				err = nil
			}
		case checkout.ShowSkinTypes:
			err = ui.SkinTypes(ctx, e.Options)
		case checkout.ShowPaymentMethods:
			err = ui.PaymentMethods(ctx, m.Methods())
		case checkout.ShowUnavailable:
			err = ui.Unavailable(ctx)
		case checkout.SendInvoice:
			next.Selection.OrderID, err = m.sendInvoice(ctx, e, ui)
		case checkout.ApproveCheckout:
			err = m.answerCheckout(ctx, userID, cur.Selection, ui)
		case checkout.SendThanks:
			err = ui.Thanks(ctx)
			if err == nil {
				metrics.Payments.Inc()
				logger.LogEvent(ctx, logger.Checkout, slog.LevelInfo, "checkout.paid",
					slog.String("order_id", cur.Selection.OrderID),
					slog.String("title", cur.Selection.Title),
					slog.String("type", cur.Selection.Type),
				)
			}
		default:
			err = fmt.Errorf("unknown effect %T", eff)
		}
		if err != nil {
			return cur, err
		}
	}
	return next, nil
}

func (m *Machine) showCategories(ctx context.Context, ui UI) error {
	cats, err := m.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return fmt.Errorf("%w: no categories", catalog.ErrDataRetrieval)
	}
	return ui.Categories(ctx, cats)
}

func (m *Machine) showSubCategories(ctx context.Context, categoryID int64, ui UI) error {
	subs, err := m.catalog.ListSubCategories(ctx, categoryID)
	if err != nil {
		return err
	}
	return ui.SubCategories(ctx, subs)
}

func (m *Machine) buildSkinSlider(ctx context.Context, subCategoryID int64, ui UI) (*slider.Slider[slider.SkinItem], error) {
	skins, err := m.catalog.ListSkins(ctx, subCategoryID)
	if err != nil {
		return nil, err
	}
	s, err := slider.Build(slider.SkinItems(skins), 0)
	if err != nil {
		return nil, err
	}
	if err := ui.SendSlider(ctx, slider.Render(s, cb.LevelSkin)); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Machine) buildExtSlider(ctx context.Context, skinID int64, ui UI) (*slider.Slider[slider.ExteriorItem], error) {
	skin, err := m.catalog.GetSkin(ctx, skinID)
	if err != nil {
		return nil, err
	}
	exteriors, err := m.catalog.ListExteriors(ctx, skinID)
	if err != nil {
		return nil, err
	}
	ids := make([]*int64, 0, 2*len(exteriors))
	for _, ext := range exteriors {
		ids = append(ids, ext.PriceID)
		if !skin.IsNormal() {
			ids = append(ids, ext.SpecPriceID)
		}
	}
	images, prices, err := m.pricing.Lookup(ctx, slider.ProviderName(skin), ids)
	if err != nil {
		return nil, err
	}
	s, err := slider.Build(slider.ExteriorItems(skin, exteriors, images, prices), 0)
	if err != nil {
		return nil, err
	}
	if err := ui.SendSlider(ctx, slider.Render(s, cb.LevelExterior)); err != nil {
		return nil, err
	}
	return &s, nil
}

// renderSlider edits the pressed message in place; when it is gone a
// fresh photo is sent instead.
func renderSlider(ctx context.Context, s checkout.Session, level cb.Level, ui UI) error {
	var v slider.View
	switch {
	case level == cb.LevelSkin && s.SkinSlider != nil:
		v = slider.Render(*s.SkinSlider, level)
	case level == cb.LevelExterior && s.ExtSlider != nil:
		v = slider.Render(*s.ExtSlider, level)
	default:
		return fmt.Errorf("%w: no %s to render", slider.ErrEmptySequence, level)
	}
	err := ui.EditSlider(ctx, v)
	if errors.Is(err, ErrMessageInaccessible) {
		return ui.SendSlider(ctx, v)
	}
	return err
}

func (m *Machine) sendInvoice(ctx context.Context, e checkout.SendInvoice, ui UI) (string, error) {
	rate, err := m.pricing.ExchangeRate(ctx, m.currency)
	if err != nil {
		return "", err
	}
	inv := Invoice{
		OrderID:  m.newOrderID(),
		Title:    e.Title,
		Type:     e.Type,
		Method:   e.Method,
		Currency: m.currency,
		Amount:   checkout.AmountMinor(e.Price.Amount, rate),
		Payload:  checkout.PaymentPayload,
	}
	if err := ui.Invoice(ctx, inv); err != nil {
		return "", err
	}
	metrics.Invoices.WithLabelValues(e.Method).Inc()
	logger.LogEvent(ctx, logger.Checkout, slog.LevelInfo, "checkout.invoice",
		slog.String("order_id", inv.OrderID),
		slog.String("method", inv.Method),
		slog.Int64("amount", inv.Amount),
		slog.String("currency", inv.Currency),
	)
	return inv.OrderID, nil
}

func (m *Machine) answerCheckout(ctx context.Context, userID int64, sel checkout.Selection, ui UI) error {
	var reason string
	if err := m.policy.Approve(ctx, userID, sel); err != nil {
		reason = err.Error()
		logger.LogEvent(ctx, logger.Checkout, slog.LevelWarn, "checkout.rejected",
			slog.String("order_id", sel.OrderID),
			slog.String("reason", reason),
		)
	}
	return ui.AnswerCheckout(ctx, reason)
}

// EventName is the short name of ev used in logs and metrics.
func EventName(ev checkout.Event) string {
	name := fmt.Sprintf("%T", ev)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func errorKind(err error) string {
	var pe *pricing.ProviderError
	if errors.As(err, &pe) {
		return "provider"
	}
	return "other"
}
