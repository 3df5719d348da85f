package middleware

import (
	"slices"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID is listed in AdminIDs.
func (o AdminOptions) IsAdmin(userID int64) bool {
	return slices.Contains(o.AdminIDs, userID)
}

func (o AdminOptions) reject(c tele.Context) error {
	if o.OnReject != nil {
		return o.OnReject(c)
	}
	return nil
}

// WithAdminCheck wraps h enforcing admin-only execution when adminOnly is set.
// With no admins configured the handler is returned unchanged.
func WithAdminCheck(opts AdminOptions, adminOnly bool, h tele.HandlerFunc) tele.HandlerFunc {
	if !adminOnly || len(opts.AdminIDs) == 0 {
		return h
	}
	return func(c tele.Context) error {
		if c.Sender() == nil || !opts.IsAdmin(c.Sender().ID) {
			return opts.reject(c)
		}
		return h(c)
	}
}

// AdminOnlyMiddleware ensures that only admin users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return WithAdminCheck(opts, true, next)
	}
}
