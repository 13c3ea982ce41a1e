// Package state keeps per-chat conversation sessions for Telegram bots.
// Backends share the Store interface and expire idle sessions after a TTL.
package state
