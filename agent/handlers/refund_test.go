package handlers

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
)

var refundTestNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestRefundHandler(store *fakeOrderStore, ledger *fakeLedger) *RefundHandler {
	h := NewRefundHandler(store, ledger)
	h.now = func() time.Time { return refundTestNow }
	return h
}

func refundableOrder(orderID int, status string, daysAgo int, total float64) contractx.OrderRecord {
	return contractx.OrderRecord{
		OrderID:       orderID,
		CustomerName:  "Alice Smith",
		Total:         total,
		Status:        status,
		OrderDate:     refundTestNow.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
		PaymentMethod: "PayPal",
	}
}

func TestRefundHandlerCanHandle(t *testing.T) {
	t.Parallel()

	h := newTestRefundHandler(&fakeOrderStore{}, &fakeLedger{})

	tests := []struct {
		message string
		want    bool
	}{
		{"I want a refund", true},
		{"give me my money back", true},
		{"cancel order 12345", true},
		{"refund 54321", true},
		{"where is my package", false},
	}
	for _, tt := range tests {
		if got := h.CanHandle(tt.message); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestRefundEligibilityTable(t *testing.T) {
	t.Parallel()

	h := newTestRefundHandler(&fakeOrderStore{}, &fakeLedger{})

	tests := []struct {
		name         string
		order        contractx.OrderRecord
		wantEligible bool
		wantReason   string
	}{
		{
			name:         "processing is ineligible",
			order:        refundableOrder(1, "processing", 2, 50),
			wantEligible: false,
			wantReason:   "processing",
		},
		{
			name:         "shipped 40 days ago is outside window",
			order:        refundableOrder(2, "shipped", 40, 50),
			wantEligible: false,
			wantReason:   "outside_window",
		},
		{
			name:         "pending cancels",
			order:        refundableOrder(3, "pending", 100, 50),
			wantEligible: true,
			wantReason:   "pending_cancellation",
		},
		{
			name:         "cancelled already",
			order:        refundableOrder(4, "cancelled", 2, 50),
			wantEligible: false,
			wantReason:   "already_cancelled",
		},
		{
			name:         "delivered inside window",
			order:        refundableOrder(5, "delivered", 10, 50),
			wantEligible: true,
			wantReason:   "eligible",
		},
		{
			name:         "shipped exactly 30 days is inside window",
			order:        refundableOrder(6, "shipped", 30, 50),
			wantEligible: true,
			wantReason:   "eligible",
		},
		{
			name:         "unknown status defaults to eligible",
			order:        refundableOrder(7, "on_hold", 200, 50),
			wantEligible: true,
			wantReason:   "eligible",
		},
		{
			name:         "unparseable date skips window check",
			order:        contractx.OrderRecord{OrderID: 8, Status: "shipped", OrderDate: "not-a-date"},
			wantEligible: true,
			wantReason:   "eligible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verdict := h.checkEligibility(tt.order)
			if verdict.eligible != tt.wantEligible {
				t.Fatalf("eligible = %v, want %v", verdict.eligible, tt.wantEligible)
			}
			if verdict.reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", verdict.reason, tt.wantReason)
			}
		})
	}
}

func TestRefundFeeComputation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		total      float64
		wantFee    float64
		wantRefund float64
	}{
		{name: "over threshold pays fee", total: 100.00, wantFee: 2.99, wantRefund: 97.01},
		{name: "under threshold is free", total: 40.00, wantFee: 0.00, wantRefund: 40.00},
		{name: "at threshold is free", total: 50.00, wantFee: 0.00, wantRefund: 50.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ledger := &fakeLedger{}
			store := &fakeOrderStore{orders: map[int]contractx.OrderRecord{
				12345: refundableOrder(12345, "delivered", 5, tt.total),
			}}
			h := newTestRefundHandler(store, ledger)

			result := h.Process(context.Background(), "refund order 12345")
			if result.Category != "refund_processed" {
				t.Fatalf("category = %q, want refund_processed", result.Category)
			}

			fee, _ := result.Extras["processing_fee"].(float64)
			refund, _ := result.Extras["refund_amount"].(float64)
			if math.Abs(fee-tt.wantFee) > 1e-9 {
				t.Fatalf("fee = %v, want %v", fee, tt.wantFee)
			}
			if math.Abs(refund-tt.wantRefund) > 1e-9 {
				t.Fatalf("refund = %v, want %v", refund, tt.wantRefund)
			}
		})
	}
}

func TestRefundLedgerRecords(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	store := &fakeOrderStore{orders: map[int]contractx.OrderRecord{
		12345: refundableOrder(12345, "delivered", 5, 100.00),
	}}
	h := newTestRefundHandler(store, ledger)

	result := h.Process(context.Background(), "refund order 12345, it arrived broken")
	if result.Category != "refund_processed" {
		t.Fatalf("category = %q, want refund_processed", result.Category)
	}

	if len(ledger.requests) != 1 || len(ledger.completions) != 1 {
		t.Fatalf("ledger calls = %d/%d, want 1/1", len(ledger.requests), len(ledger.completions))
	}
	req := ledger.requests[0]
	if req.OrderID != 12345 {
		t.Fatalf("logged order = %d", req.OrderID)
	}
	if req.Reason != "Product defective/damaged" {
		t.Fatalf("logged reason = %q", req.Reason)
	}
	if req.Priority != "standard" {
		t.Fatalf("logged priority = %q", req.Priority)
	}
	if math.Abs(req.EstimatedAmount-100.00) > 1e-9 {
		t.Fatalf("estimated amount = %v", req.EstimatedAmount)
	}

	completion := ledger.completions[0]
	if completion.LogID != req.LogID {
		t.Fatal("completion log id does not match request")
	}
	if completion.TransactionID == "" {
		t.Fatal("transaction id is empty")
	}
	if !strings.Contains(result.Message, completion.TransactionID) {
		t.Fatal("reply should embed the transaction id")
	}
}

func TestRefundLedgerFailureBecomesErrorReply(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{completeErr: errUnavailable}
	store := &fakeOrderStore{orders: map[int]contractx.OrderRecord{
		12345: refundableOrder(12345, "delivered", 5, 100.00),
	}}
	h := newTestRefundHandler(store, ledger)

	result := h.Process(context.Background(), "refund order 12345")
	if result.Category != "refund_error" {
		t.Fatalf("category = %q, want refund_error", result.Category)
	}
	reference, _ := result.Extras["reference"].(string)
	if reference == "" {
		t.Fatal("error reply should carry a reference id")
	}
	if !strings.Contains(result.Message, reference) {
		t.Fatal("reply should embed the reference id")
	}
}

func TestRefundUnknownOrder(t *testing.T) {
	t.Parallel()

	h := newTestRefundHandler(&fakeOrderStore{}, &fakeLedger{})
	result := h.Process(context.Background(), "refund order 999999")

	if result.Category != "order_not_found" {
		t.Fatalf("category = %q, want order_not_found", result.Category)
	}
}

func TestRefundBareOrderIDFollowUp(t *testing.T) {
	t.Parallel()

	ledger := &fakeLedger{}
	store := &fakeOrderStore{orders: map[int]contractx.OrderRecord{
		54321: refundableOrder(54321, "pending", 1, 40.00),
	}}
	h := newTestRefundHandler(store, ledger)

	result := h.Process(context.Background(), "  54321 ")
	if result.Category != "refund_processed" {
		t.Fatalf("category = %q, want refund_processed", result.Category)
	}
	if req := ledger.requests[0]; req.Reason != "Customer request" {
		t.Fatalf("bare id reason = %q", req.Reason)
	}
}

func TestRefundPolicyQuestion(t *testing.T) {
	t.Parallel()

	h := newTestRefundHandler(&fakeOrderStore{}, &fakeLedger{})
	result := h.Process(context.Background(), "what is your refund policy?")

	if result.Category != "refund_policy" {
		t.Fatalf("category = %q, want refund_policy", result.Category)
	}
	if !strings.Contains(result.Message, "30 days") {
		t.Fatalf("policy reply should mention the window, got %q", result.Message)
	}
}

func TestRefundPromptKeepsFollowUpMarkers(t *testing.T) {
	t.Parallel()

	h := newTestRefundHandler(&fakeOrderStore{}, &fakeLedger{})
	result := h.Process(context.Background(), "I am unsatisfied")

	if result.Category != "refund_inquiry" {
		t.Fatalf("category = %q, want refund_inquiry", result.Category)
	}
	lower := strings.ToLower(result.Message)
	if !strings.Contains(lower, "order number") || !strings.Contains(lower, "refund") {
		t.Fatal("prompt must mention both the order number and refunds for follow-up routing")
	}
}
