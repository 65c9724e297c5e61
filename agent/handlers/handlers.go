// Package handlers contains the three support-domain handlers the router
// dispatches to. Each handler pairs a cheap CanHandle gate with a Process
// implementation that always terminates in a reply, never an error: missing
// orders, policy rejections, and collaborator failures are all rendered as
// user-facing messages.
package handlers

import (
	"time"
)

// Each handler keeps its own bounded interaction window for introspection.
// Routing correctness depends only on the router's tracker, not on this.
const interactionLimit = 10

type interaction struct {
	Timestamp time.Time
	Message   string
	Response  string
}

type interactionLog struct {
	entries []interaction
	now     func() time.Time
}

func newInteractionLog() interactionLog {
	return interactionLog{now: time.Now}
}

func (l *interactionLog) add(message, response string) {
	l.entries = append(l.entries, interaction{
		Timestamp: l.now().UTC(),
		Message:   message,
		Response:  response,
	})
	if len(l.entries) > interactionLimit {
		l.entries = l.entries[len(l.entries)-interactionLimit:]
	}
}

func (l *interactionLog) count() int {
	return len(l.entries)
}
