package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and listed only in the admin's menu.
	AdminOnly bool
	// Hidden commands work but never appear in a menu.
	Hidden bool
}
