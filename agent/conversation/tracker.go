// Package conversation keeps the short-term memory the router uses for
// follow-up disambiguation: a bounded history of routed interactions plus a
// small key/value context overwritten on every turn.
package conversation

import (
	"time"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/textscan"
)

const (
	// historyLimit caps retained interactions; the oldest entry is evicted
	// first once the cap is reached.
	historyLimit = 10

	// responseSnippetLimit bounds the last_response context value.
	responseSnippetLimit = 100
)

// Context keys maintained on every routed interaction.
const (
	KeyLastAgentUsed = "last_agent_used"
	KeyLastCategory  = "last_category"
	KeyLastMessage   = "last_message"
	KeyLastResponse  = "last_response"
)

var refundFollowUpKeywords = []string{"refund", "return", "money back"}

// HistoryEntry is one routed interaction. Insertion order is significant.
type HistoryEntry struct {
	Timestamp time.Time             `json:"timestamp"`
	Message   string                `json:"message"`
	Response  string                `json:"response"`
	Handler   contractx.HandlerName `json:"handler"`
	Category  string                `json:"category,omitempty"`
}

// Tracker retains the bounded history window and derived context for one
// conversation. It is not safe for concurrent use; the router serializes
// access per session.
type Tracker struct {
	history []HistoryEntry
	context map[string]string
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		context: make(map[string]string, 4),
		now:     time.Now,
	}
}

// Record appends the interaction to history, evicting the oldest entry past
// the cap, and overwrites the derived context keys.
func (t *Tracker) Record(message string, result contractx.RoutingResult) {
	t.history = append(t.history, HistoryEntry{
		Timestamp: t.now().UTC(),
		Message:   message,
		Response:  result.Message,
		Handler:   result.Handler,
		Category:  result.Category,
	})
	if len(t.history) > historyLimit {
		t.history = t.history[len(t.history)-historyLimit:]
	}

	t.context[KeyLastAgentUsed] = string(result.Handler)
	t.context[KeyLastCategory] = result.Category
	t.context[KeyLastMessage] = message
	t.context[KeyLastResponse] = truncate(result.Message, responseSnippetLimit)
}

// SuggestFollowUp inspects recent history for natural follow-up shapes:
// the previous reply asked for an order number and the current message
// carries a digit token, or the second-most-recent user message was
// refund-flavored and the current message carries a digit token. This is a
// heuristic; false positives are accepted.
func (t *Tracker) SuggestFollowUp(message string) (contractx.HandlerName, bool) {
	if len(t.history) == 0 {
		return "", false
	}

	last := t.history[len(t.history)-1]
	if textscan.ContainsAny(last.Response, "order number", "provide your order") &&
		textscan.HasDigitToken(message) {
		if textscan.ContainsAny(last.Response, "refund") {
			return contractx.HandlerRefund, true
		}
		return contractx.HandlerOrder, true
	}

	if len(t.history) >= 2 {
		prev := t.history[len(t.history)-2]
		if textscan.ContainsAny(prev.Message, refundFollowUpKeywords...) &&
			textscan.HasDigitToken(message) {
			return contractx.HandlerRefund, true
		}
	}

	return "", false
}

// History returns a copy of the retained window, oldest first.
func (t *Tracker) History() []HistoryEntry {
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// Context returns a derived context value.
func (t *Tracker) Context(key string) (string, bool) {
	v, ok := t.context[key]
	return v, ok
}

// Len reports the retained history length.
func (t *Tracker) Len() int {
	return len(t.history)
}

// truncate bounds s to limit runes; byte slicing could split a multi-byte
// character in user text.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
