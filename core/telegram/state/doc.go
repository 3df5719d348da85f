// Package state persists per-user conversation sessions for Telegram bots:
// a state tag plus a keyed JSON payload, guarded by an optimistic version.
// It knows nothing about the conversations that use it.
package state
