// Package format builds Telegram HTML message fragments.
package format

import (
	"html"
	"strings"
)

// Escape escapes text for HTML parse mode.
func Escape(s string) string { return html.EscapeString(s) }

// Code wraps escaped text in <code>.
func Code(s string) string { return "<code>" + Escape(s) + "</code>" }

// Bold wraps escaped text in <b>.
func Bold(s string) string { return "<b>" + Escape(s) + "</b>" }

// Italic wraps escaped text in <i>.
func Italic(s string) string { return "<i>" + Escape(s) + "</i>" }

// Lines joins non-empty fragments with a newline.
func Lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
