package textscan

import "testing"

func TestExtractOrderIDDomainPatternWins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    int
	}{
		{name: "order anchor", message: "where is order 12345?", want: 12345},
		{name: "order id anchor", message: "order id 54321 please", want: 54321},
		{name: "hash anchor", message: "check #11111 for me", want: 11111},
		{name: "tracking anchor", message: "tracking number 20001", want: 20001},
		{name: "trailing order", message: "12345 order status", want: 12345},
		{name: "generic fallback", message: "it was 67890 I think", want: 67890},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractOrderID(tt.message, OrderPatterns)
			if !ok {
				t.Fatalf("ExtractOrderID(%q) ok = false, want true", tt.message)
			}
			if got != tt.want {
				t.Fatalf("ExtractOrderID(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}

func TestExtractOrderIDNoDigits(t *testing.T) {
	t.Parallel()

	for _, message := range []string{
		"where is my order?",
		"digits too short 123",
		"digits too long 1234567",
	} {
		if id, ok := ExtractOrderID(message, OrderPatterns); ok {
			t.Fatalf("ExtractOrderID(%q) = %d, want no id", message, id)
		}
	}
}

func TestExtractOrderIDRefundPatterns(t *testing.T) {
	t.Parallel()

	id, ok := ExtractOrderID("I want to refund order 12345 now", RefundPatterns)
	if !ok || id != 12345 {
		t.Fatalf("ExtractOrderID refund anchor = %d, %v", id, ok)
	}

	id, ok = ExtractOrderID("12345 refund please", RefundPatterns)
	if !ok || id != 12345 {
		t.Fatalf("ExtractOrderID trailing refund = %d, %v", id, ok)
	}
}

func TestExtractOrderIDIdempotent(t *testing.T) {
	t.Parallel()

	const message = "please cancel order 54321 and refund 12345"
	first, okFirst := ExtractOrderID(message, RefundPatterns)
	second, okSecond := ExtractOrderID(message, RefundPatterns)
	if first != second || okFirst != okSecond {
		t.Fatalf("extraction not idempotent: (%d,%v) vs (%d,%v)", first, okFirst, second, okSecond)
	}
}

func TestBareOrderID(t *testing.T) {
	t.Parallel()

	if id, ok := BareOrderID("  12345  "); !ok || id != 12345 {
		t.Fatalf("BareOrderID = %d, %v", id, ok)
	}
	if _, ok := BareOrderID("order 12345"); ok {
		t.Fatal("BareOrderID matched a non-bare message")
	}
	if _, ok := BareOrderID("123"); ok {
		t.Fatal("BareOrderID matched a 3-digit token")
	}
}

func TestContainsAnyAndCountMatches(t *testing.T) {
	t.Parallel()

	if !ContainsAny("I NEED a Refund", "refund", "return") {
		t.Fatal("ContainsAny should be case-insensitive")
	}
	if ContainsAny("hello there", "refund") {
		t.Fatal("ContainsAny matched an absent keyword")
	}

	got := CountMatches("track my order delivery", []string{"order", "track", "refund"})
	if got != 2 {
		t.Fatalf("CountMatches = %d, want 2", got)
	}
}

func TestHasDigitToken(t *testing.T) {
	t.Parallel()

	if !HasDigitToken("maybe 4567 works") {
		t.Fatal("expected digit token match")
	}
	if HasDigitToken("no numbers here") {
		t.Fatal("unexpected digit token match")
	}
}
