package state

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/skinshop/core/telegram/helpers"
)

const sessionKey = "fsm_session"

// WithSession loads the sender's session from store into the handler context.
// Load failures are passed on as handler errors.
func WithSession(store Store) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return next(c)
			}
			sess, err := store.Get(tghelpers.BuildContext(c), c.Sender().ID)
			if err != nil {
				return err
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// FromContext returns the session injected by WithSession.
func FromContext(c tele.Context) (*Session, bool) {
	sess, ok := c.Get(sessionKey).(*Session)
	return sess, ok
}
