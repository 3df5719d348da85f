package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/skinshop/core/telegram"
	"github.com/m3rciful/skinshop/core/telegram/middleware"
	"github.com/m3rciful/skinshop/core/telegram/state"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoute resolves free text to a registered command (covering aliases and
// "/cmd@bot" forms) and falls back to the registry or UnknownText handler.
func TextRoute(reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return opts.UnknownText(c) })
		}
		return handleWithSummary(c, "unknown_text", start, func() error { return errSkipped })
	}
	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// StateRoute binds endpoint to h, passing updates on only while the sender's
// session is in expected.
func StateRoute(endpoint any, name string, store state.Store, expected state.State, h tele.HandlerFunc) tg.Route {
	scoped := middleware.State(store, expected)(h)
	handler := func(c tele.Context) error {
		return handleWithSummary(c, name, time.Now(), func() error { return scoped(c) })
	}
	return tg.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
