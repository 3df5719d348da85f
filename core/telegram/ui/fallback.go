package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when an update matches no
// command, callback or text route.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Silent answers callbacks without text and ignores everything else.
type Silent struct{}

// UnknownText ignores the message.
func (Silent) UnknownText() tele.HandlerFunc {
	return func(tele.Context) error { return nil }
}

// UnknownCallback stops the client spinner without showing an alert.
func (Silent) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error { return c.Respond() }
}
