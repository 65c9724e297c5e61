// Package router is the dispatch core: it classifies each incoming message
// with keyword scoring and short-term conversational context, invokes the
// winning handler, and records the outcome for follow-up routing.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/conversation"
)

const routeMessageSnippetLimit = 50

const unroutableMessage = `I'm not sure how to help with that specific request.

Let me connect you with our general support team, or you can try rephrasing your question.

Common things I can help with:
- Order status and tracking
- Refunds and returns
- Shipping information
- General customer support

What would you like help with?`

// Router routes one conversation's messages to its handler set. It owns the
// conversation tracker exclusively; handlers stay stateless with respect to
// routing. One Router per session, no cross-session shared state. A mutex
// serializes turns, so concurrent requests for the same session queue up
// instead of interleaving tracker and handler mutations.
type Router struct {
	weights  Weights
	tracker  *conversation.Tracker
	handlers []contractx.Handler
	byName   map[contractx.HandlerName]contractx.Handler
	support  contractx.Handler

	mu sync.Mutex

	graphRunner compose.Runnable[string, contractx.RoutingResult]
}

type Option func(*Router)

// WithWeights overrides the default scoring constants.
func WithWeights(w Weights) Option {
	return func(r *Router) { r.weights = w }
}

// WithTracker replaces the fresh tracker, typically with one restored from a
// session snapshot.
func WithTracker(t *conversation.Tracker) Option {
	return func(r *Router) {
		if t != nil {
			r.tracker = t
		}
	}
}

// New builds a Router over the three handlers. The argument order is the
// selection priority: refund is checked first, then order, and support is
// both the last candidate and the below-threshold fallback.
func New(refund, order, support contractx.Handler, opts ...Option) (*Router, error) {
	if refund == nil || order == nil || support == nil {
		return nil, errors.New("all three handlers are required")
	}

	r := &Router{
		weights:  DefaultWeights(),
		tracker:  conversation.NewTracker(),
		handlers: []contractx.Handler{refund, order, support},
		support:  support,
	}
	r.byName = make(map[contractx.HandlerName]contractx.Handler, len(r.handlers))
	for _, h := range r.handlers {
		r.byName[h.Name()] = h
	}

	for _, opt := range opts {
		opt(r)
	}

	graphRunner, err := r.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Process routes one message and returns the structured result. Every path
// ends in a reply: routing misses and blank messages are normal replies, not
// errors. Turns within one Router run strictly one at a time.
func (r *Router) Process(ctx context.Context, message string) (contractx.RoutingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return emptyMessageResult(), nil
	}
	return r.graphRunner.Invoke(ctx, message)
}

// Respond is the plain-text entry point for transport layers.
func (r *Router) Respond(ctx context.Context, message string) (string, error) {
	result, err := r.Process(ctx, message)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// ForceRoute bypasses scoring and context and invokes the named handler
// directly, for testing and debugging. The interaction is not recorded, so a
// forced route never influences follow-up routing.
func (r *Router) ForceRoute(ctx context.Context, name contractx.HandlerName, message string) (contractx.RoutingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handler, ok := r.byName[name]
	if !ok {
		return contractx.RoutingResult{}, fmt.Errorf("%w: %q", contractx.ErrUnknownHandler, name)
	}

	result := handler.Process(ctx, message)
	result.Handler = handler.Name()
	result.Reason = contractx.ReasonForced
	return result.WithExtra("forced_routing", true), nil
}

// RoutingHistory returns the recent routing decisions, newest last.
func (r *Router) RoutingHistory() []contractx.RouteRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.tracker.History()
	records := make([]contractx.RouteRecord, 0, len(history))
	for _, entry := range history {
		records = append(records, contractx.RouteRecord{
			Timestamp: entry.Timestamp,
			Message:   snippet(entry.Message),
			Handler:   entry.Handler,
		})
	}
	return records
}

// HandlerStatuses reports each handler's introspection data in priority order.
func (r *Router) HandlerStatuses() []contractx.HandlerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]contractx.HandlerStatus, 0, len(r.handlers))
	for _, h := range r.handlers {
		statuses = append(statuses, h.Status())
	}
	return statuses
}

// Snapshot captures the conversation tracker's state for persistence,
// consistent with respect to in-flight turns.
func (r *Router) Snapshot(sessionID string) conversation.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Snapshot(sessionID)
}

// Tracker exposes the conversation tracker for inspection. Callers must not
// use it while another goroutine routes messages through the Router.
func (r *Router) Tracker() *conversation.Tracker {
	return r.tracker
}

// selectHandler picks the gate-passing handler with the strictly highest
// score, iterating in priority order so the first among equal top scores
// wins. Below the threshold, support answers unconditionally.
func (r *Router) selectHandler(message string, scores Scores) (contractx.Handler, float64) {
	byHandler := map[contractx.HandlerName]float64{
		contractx.HandlerRefund:  scores.Refund,
		contractx.HandlerOrder:   scores.Order,
		contractx.HandlerSupport: scores.Support,
	}

	var best contractx.Handler
	bestScore := 0.0
	for _, h := range r.handlers {
		score := byHandler[h.Name()]
		if h.CanHandle(message) && score > bestScore {
			best = h
			bestScore = score
		}
	}

	if best == nil || bestScore < r.weights.SelectionThreshold {
		return r.support, byHandler[contractx.HandlerSupport]
	}
	return best, bestScore
}

func unroutableResult() contractx.RoutingResult {
	return contractx.RoutingResult{
		Message: unroutableMessage,
		Reason:  contractx.ReasonUnroutable,
		Suggestions: []string{
			"Check order status",
			"Request a refund",
			"Shipping information",
			"General help",
		},
	}
}

func emptyMessageResult() contractx.RoutingResult {
	return contractx.RoutingResult{
		Message:  "Please type a message so I can help you. For example, ask about an order status or a refund.",
		Reason:   contractx.ReasonUnroutable,
		Category: "empty_message",
	}
}

func snippet(message string) string {
	runes := []rune(message)
	if len(runes) <= routeMessageSnippetLimit {
		return message
	}
	return strings.TrimSpace(string(runes[:routeMessageSnippetLimit])) + "..."
}
