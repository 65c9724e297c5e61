package router

import (
	"regexp"

	"github.com/tanawat-p/supportdesk/agent/textscan"
)

// Routing keyword lists. These are the router's own signal tables and are
// deliberately narrower than the handlers' CanHandle lists: the gate decides
// whether a handler may answer, the score decides which one should.
var (
	refundScoreKeywords = []string{
		"refund", "return", "money back", "cancel order", "get my money",
		"charge back", "dispute", "unsatisfied", "not happy", "want to return",
	}

	orderScoreKeywords = []string{
		"order", "status", "track", "tracking", "shipped", "delivery",
		"where is", "when will", "arrive", "delivered", "package",
	}

	supportScoreCategories = [][]string{
		{"shipping", "delivery", "ship", "when will", "arrive", "tracking", "fedex", "ups", "usps"},
		{"return policy", "exchange", "send back"},
		{"payment", "charge", "billing", "credit card", "paypal", "apple pay", "payment methods"},
		{"account", "login", "password", "profile", "email", "update", "change"},
		{"contact", "phone", "email", "speak to", "human", "representative", "hours"},
		{"product", "item", "quality", "size", "color", "material", "specifications"},
	}

	greetingScoreKeywords = []string{
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	}

	genericScoreKeywords = []string{"help", "support", "question", "info"}

	refundBonusPattern = regexp.MustCompile(`(?i)\b(refund|return|cancel)\s+(?:order\s+)?(\d{4,6})\b`)
	orderBonusPattern  = regexp.MustCompile(`(?i)\b(check|status|track)\s+(?:order\s+)?(\d{4,6})\b`)
)

// Weights are the scoring constants. The values were tuned empirically, so
// they are configuration rather than law; DefaultWeights is the compatible
// set and changing any of them changes routing outcomes.
type Weights struct {
	RefundKeyword      float64
	RefundPatternBonus float64
	OrderKeyword       float64
	OrderPatternBonus  float64
	CrossBoost         float64
	SupportBase        float64
	SupportCategory    float64
	SupportGreeting    float64
	SupportGeneric     float64
	SelectionThreshold float64
}

func DefaultWeights() Weights {
	return Weights{
		RefundKeyword:      2,
		RefundPatternBonus: 3,
		OrderKeyword:       1.5,
		OrderPatternBonus:  2,
		CrossBoost:         1,
		SupportBase:        1,
		SupportCategory:    2,
		SupportGreeting:    2,
		SupportGeneric:     0.5,
		SelectionThreshold: 1,
	}
}

// Scores holds one message's per-handler intent scores, recomputed fresh for
// every message.
type Scores struct {
	Refund  float64
	Order   float64
	Support float64
}

func (w Weights) scoreIntents(message string) Scores {
	var s Scores

	s.Refund = w.RefundKeyword * float64(textscan.CountMatches(message, refundScoreKeywords))
	if refundBonusPattern.MatchString(textscan.Normalize(message)) {
		s.Refund += w.RefundPatternBonus
	}

	s.Order = w.OrderKeyword * float64(textscan.CountMatches(message, orderScoreKeywords))
	if orderBonusPattern.MatchString(textscan.Normalize(message)) {
		s.Order += w.OrderPatternBonus
	}

	// Both domains lit up: the refund reading wins the tie.
	if s.Refund > 0 && s.Order > 0 {
		s.Refund += w.CrossBoost
	}

	s.Support = w.SupportBase
	// One bump per matched category, not per keyword.
	for _, keywords := range supportScoreCategories {
		if textscan.ContainsAny(message, keywords...) {
			s.Support += w.SupportCategory
		}
	}
	if s.Support <= w.SupportBase && textscan.ContainsAny(message, greetingScoreKeywords...) {
		s.Support += w.SupportGreeting
	}
	s.Support += w.SupportGeneric * float64(textscan.CountMatches(message, genericScoreKeywords))

	return s
}
