package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/skinshop/core/logger"
	tghelpers "github.com/m3rciful/skinshop/core/telegram/helpers"
	"github.com/m3rciful/skinshop/core/telegram/state"
)

// State passes the update on only when the sender's stored session is in expected.
// Other updates are dropped silently.
func State(store state.Store, expected state.State) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)
			current := state.StateIdle
			if sess, ok := state.FromContext(c); ok {
				current = sess.State
			} else {
				sess, err := store.Get(ctx, c.Sender().ID)
				if err != nil {
					return err
				}
				current = sess.State
			}

			event := "fsm.skip"
			if current == expected {
				event = "fsm.match"
			}
			logger.TG.LogAttrs(ctx, slog.LevelDebug, event,
				slog.String("event", event),
				slog.String("state", string(current)),
				slog.String("expected", string(expected)),
			)
			if current != expected {
				return nil
			}
			return next(c)
		}
	}
}
