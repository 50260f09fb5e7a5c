// Package cmd is the transport-agnostic command core. A command has a name,
// a description and Run(ctx, invocation); how it is registered and dispatched
// (Discord slash, component press, HTTP) belongs to adapters.
package cmd

import "context"

// Invocation carries what an adapter hands to a command. Data holds the
// adapter's own context (for Discord, the session and interaction).
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
