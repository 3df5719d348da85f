// Package handlers binds the shop to Telegram: commands, inline buttons,
// pre-checkout queries and successful payments are turned into checkout
// events, and flow screens are rendered with telebot.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skinshop/core/logger"
	tg "github.com/m3rciful/skinshop/core/telegram"
	"github.com/m3rciful/skinshop/core/telegram/callbacks"
	"github.com/m3rciful/skinshop/core/telegram/commands"
	tghelpers "github.com/m3rciful/skinshop/core/telegram/helpers"
	"github.com/m3rciful/skinshop/core/telegram/netutil"
	"github.com/m3rciful/skinshop/core/telegram/router"
	"github.com/m3rciful/skinshop/core/telegram/state"
	tgui "github.com/m3rciful/skinshop/core/telegram/ui"
	cb "github.com/m3rciful/skinshop/shop/callbackdata"
	"github.com/m3rciful/skinshop/shop/checkout"
	"github.com/m3rciful/skinshop/shop/flow"
)

// PaymentMethod is one payment provider offered on the method screen.
type PaymentMethod struct {
	Name  string
	Label string
	// Token is the Telegram payment provider token.
	Token string
}

// InvoiceOptions holds the fixed invoice fields.
type InvoiceOptions struct {
	Description    string
	StartParameter string
}

// Options configures Handlers.
type Options struct {
	Machine *flow.Machine
	Store   state.Store
	Methods []PaymentMethod
	Invoice InvoiceOptions
	// SupportContact is named in the /help reply.
	SupportContact string
	AdminIDs       []int64
}

var _ tgui.FallbackProvider = (*Handlers)(nil)

// Handlers owns the Telegram entry points of the shop.
type Handlers struct {
	machine  *flow.Machine
	store    state.Store
	methods  []PaymentMethod
	invoice  InvoiceOptions
	support  string
	adminIDs []int64
}

// New checks that every payment method accepted by the machine has a token.
func New(opts Options) (*Handlers, error) {
	if opts.Machine == nil || opts.Store == nil {
		return nil, errors.New("handlers: machine and store are required")
	}
	for _, name := range opts.Machine.Methods() {
		m, ok := findMethod(opts.Methods, name)
		if !ok || strings.TrimSpace(m.Token) == "" {
			return nil, fmt.Errorf("handlers: payment method %q has no provider token", name)
		}
	}
	inv := opts.Invoice
	if inv.Description == "" {
		inv.Description = defaultInvoiceDescription
	}
	if inv.StartParameter == "" {
		inv.StartParameter = defaultStartParameter
	}
	return &Handlers{
		machine:  opts.Machine,
		store:    opts.Store,
		methods:  opts.Methods,
		invoice:  inv,
		support:  opts.SupportContact,
		adminIDs: opts.AdminIDs,
	}, nil
}

// Register adds the shop commands and one callback handler per payload tag.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start": {Handler: h.onStart, Description: "Start bot"},
		"/help":  {Handler: h.onHelp, Description: "Contact with moderators"},
		"/shop":  {Handler: h.onShop, Description: "Open shop catalog"},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	for _, tag := range cb.Tags {
		if err := reg.RegisterCallback(string(tag), h.onCallback); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return nil
}

// Routes returns every endpoint binding of the shop.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminIDs: h.adminIDs})
	payment := state.State(checkout.StepPayment)
	return append(routes,
		router.TextRoute(reg, router.TextOptions{UnknownText: h.UnknownText()}),
		router.CallbackRoute(reg, router.CallbackOptions{NotFound: h.UnknownCallback()}),
		router.StateRoute(tele.OnCheckout, "checkout", h.store, payment, h.onCheckout),
		router.StateRoute(tele.OnPayment, "payment", h.store, payment, h.onPayment),
	)
}

// UnknownText hints at the available commands.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUnknown)
	}
}

// UnknownCallback stops the client spinner.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return tgui.Silent{}.UnknownCallback()
}

// OnLimited tells callback senders to slow down.
func (h *Handlers) OnLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: "Too many requests, slow down."})
}

// OnError logs a failed handler and shows the generic failure text.
func (h *Handlers) OnError(err error, c tele.Context) {
	if c == nil {
		logger.TG.Error("handler failed",
			slog.String("event", "tg.handler_error"),
			slog.String("err", netutil.RedactToken(err.Error())),
		)
		return
	}
	ctx := tghelpers.BuildContext(c)
	logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.handler_error",
		slog.String("err", netutil.RedactToken(err.Error())),
	)
	if c.Chat() == nil {
		return
	}
	if sendErr := tghelpers.SendText(c, textFailure); sendErr != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.error_reply_failed",
			slog.String("err", netutil.RedactToken(sendErr.Error())),
		)
	}
}

// Sender is the part of *tele.Bot used for service notifications.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// NotifyAdmins sends the startup notice to every admin. Failures are logged.
func (h *Handlers) NotifyAdmins(ctx context.Context, bot Sender) {
	for _, id := range h.adminIDs {
		if _, err := bot.Send(tele.ChatID(id), textAdminStarted); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.notify_admin_failed",
				slog.Int64("admin_id", id),
				slog.String("err", netutil.RedactToken(err.Error())),
			)
		}
	}
}

func (h *Handlers) ui(c tele.Context) flow.UI {
	return chatUI{c: c, methods: h.methods, invoice: h.invoice}
}

func (h *Handlers) dispatch(c tele.Context, ev checkout.Event) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "shop."+flow.EventName(ev))
	return h.machine.Handle(ctx, user.ID, ev, h.ui(c))
}

func (h *Handlers) onStart(c tele.Context) error {
	var name string
	if u := c.Sender(); u != nil {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return tghelpers.SendText(c, startText(name))
}

func (h *Handlers) onHelp(c tele.Context) error {
	var first string
	if u := c.Sender(); u != nil {
		first = u.FirstName
	}
	return tghelpers.SendHTML(c, helpText(first, h.support))
}

func (h *Handlers) onShop(c tele.Context) error {
	return h.dispatch(c, checkout.EnterShop{})
}

func (h *Handlers) onCallback(c tele.Context) error {
	payload, err := cb.Decode(callbacks.CallbackKey(c), callbacks.CallbackPayload(c))
	if err != nil {
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "tg.callback_dropped",
			slog.String("err", err.Error()),
		)
		return c.Respond()
	}
	if err := c.Respond(); err != nil {
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "tg.callback_answer_failed",
			slog.String("err", netutil.RedactToken(err.Error())),
		)
	}
	ev := eventFor(payload)
	if ev == nil {
		return nil
	}
	return h.dispatch(c, ev)
}

func (h *Handlers) onCheckout(c tele.Context) error {
	if c.PreCheckoutQuery() == nil {
		return nil
	}
	return h.dispatch(c, checkout.PreCheckout{})
}

func (h *Handlers) onPayment(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Payment == nil {
		return nil
	}
	return h.dispatch(c, checkout.PaymentConfirmed{Payload: msg.Payment.Payload})
}
