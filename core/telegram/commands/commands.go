// Package commands declares the registry's command metadata.
package commands

import tele "gopkg.in/telebot.v4"

// Command binds a handler to its menu description and visibility flags.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
