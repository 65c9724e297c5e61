package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/textscan"
)

// Business rules for refunds. Orders over the fee threshold pay the
// processing fee; shipped/delivered orders are refundable only inside the
// window.
const (
	refundWindowDays       = 30
	processingFee          = 2.99
	processingFeeThreshold = 50.00

	refundPriority       = "standard"
	refundMethod         = "Original payment method"
	refundProcessingTime = 96 * time.Second
)

var (
	refundKeywords = []string{
		"refund", "return", "money back", "cancel order", "get my money",
		"charge back", "dispute", "unsatisfied", "not happy", "want to return",
		"return policy", "refund policy", "how to return", "send back",
	}

	refundPolicyKeywords = []string{"policy", "how", "what", "when", "process"}
)

const refundPolicyText = `**Refund Policy & Process:**

**Eligibility:** Orders can be refunded within 30 days of delivery
**Processing Time:** 3-5 business days
**Refund Method:** Original payment method
**Processing Fee:** $2.99 for orders over $50

**To request a refund:**
1. Provide your order number
2. Tell me the reason for the refund
3. I'll process it immediately if eligible

What's your order number?`

var _ contractx.Handler = (*RefundHandler)(nil)

// RefundHandler processes refund requests against the order store and
// records the refund lifecycle in the ledger.
type RefundHandler struct {
	store  contractx.OrderStore
	ledger contractx.RefundLedger
	log    interactionLog
	now    func() time.Time
}

func NewRefundHandler(store contractx.OrderStore, ledger contractx.RefundLedger) *RefundHandler {
	return &RefundHandler{
		store:  store,
		ledger: ledger,
		log:    newInteractionLog(),
		now:    time.Now,
	}
}

func (h *RefundHandler) Name() contractx.HandlerName {
	return contractx.HandlerRefund
}

func (h *RefundHandler) CanHandle(message string) bool {
	if textscan.ContainsAny(message, refundKeywords...) {
		return true
	}
	_, ok := textscan.ExtractAnchoredOrderID(message, textscan.RefundPatterns)
	return ok
}

func (h *RefundHandler) Status() contractx.HandlerStatus {
	return contractx.HandlerStatus{
		Name:         h.Name(),
		Interactions: h.log.count(),
	}
}

func (h *RefundHandler) Process(ctx context.Context, message string) contractx.RoutingResult {
	result := h.process(ctx, message)
	h.log.add(message, result.Message)
	return result
}

func (h *RefundHandler) process(ctx context.Context, message string) contractx.RoutingResult {
	// A bare order ID is the usual follow-up after we asked for one.
	if orderID, ok := textscan.BareOrderID(message); ok {
		return h.processRefund(ctx, orderID, "Customer request")
	}

	if orderID, ok := textscan.ExtractOrderID(message, textscan.RefundPatterns); ok {
		return h.processRefund(ctx, orderID, refundReason(message))
	}

	// Pure policy/how-to question: answer without carrying state forward.
	if textscan.ContainsAny(message, refundPolicyKeywords...) {
		return contractx.RoutingResult{
			Message:  refundPolicyText,
			Handler:  h.Name(),
			Category: "refund_policy",
		}
	}

	// No order ID: prompt for one. The reply deliberately mentions both
	// "refund" and "order number" so a bare-digit follow-up routes back here.
	return contractx.RoutingResult{
		Message:  refundPolicyText,
		Handler:  h.Name(),
		Category: "refund_inquiry",
	}.WithExtra("needs_order_id", true)
}

// refundReason maps free text onto a canned ledger reason.
func refundReason(message string) string {
	switch {
	case textscan.ContainsAny(message, "defective", "broken", "damaged", "faulty"):
		return "Product defective/damaged"
	case textscan.ContainsAny(message, "wrong", "incorrect", "mistake"):
		return "Wrong item received"
	case textscan.ContainsAny(message, "late", "delayed", "slow"):
		return "Late delivery"
	case textscan.ContainsAny(message, "changed mind", "don't want", "no longer need"):
		return "Changed mind"
	default:
		return "Customer request"
	}
}

func (h *RefundHandler) processRefund(ctx context.Context, orderID int, reason string) contractx.RoutingResult {
	log.Info().Int("order_id", orderID).Str("reason", reason).Msg("processing refund request")

	order, found, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		reference := uuid.NewString()
		log.Error().Err(err).Int("order_id", orderID).Str("reference", reference).Msg("order store failure")
		return contractx.RoutingResult{
			Message:  fmt.Sprintf("I apologize, but I couldn't look up order #%d right now. Please try again or contact our support team. Reference: %s", orderID, reference),
			Handler:  h.Name(),
			Category: "lookup_error",
		}.WithExtra("order_id", orderID)
	}
	if !found {
		return contractx.RoutingResult{
			Message:  fmt.Sprintf("I couldn't find order #%d. Please check the order number and try again.", orderID),
			Handler:  h.Name(),
			Category: "order_not_found",
		}.WithExtra("order_id", orderID)
	}

	if verdict := h.checkEligibility(order); !verdict.eligible {
		return contractx.RoutingResult{
			Message:  verdict.message,
			Handler:  h.Name(),
			Category: "refund_ineligible",
		}.WithExtra("order_id", orderID).WithExtra("reason", verdict.reason)
	}

	return h.executeRefund(ctx, order, reason)
}

type eligibilityVerdict struct {
	eligible bool
	reason   string
	message  string
}

// checkEligibility applies the refund decision table. Unknown statuses are
// treated as eligible.
func (h *RefundHandler) checkEligibility(order contractx.OrderRecord) eligibilityVerdict {
	switch strings.ToLower(order.Status) {
	case "cancelled":
		return eligibilityVerdict{
			reason:  "already_cancelled",
			message: fmt.Sprintf("Order %d has already been cancelled. If you need assistance, please contact our support team.", order.OrderID),
		}
	case "pending":
		return eligibilityVerdict{
			eligible: true,
			reason:   "pending_cancellation",
			message:  "Order is still pending and can be cancelled.",
		}
	case "processing":
		return eligibilityVerdict{
			reason:  "processing",
			message: fmt.Sprintf("Order %d is still being processed. Please wait for shipment before requesting a refund, or contact support to cancel the order.", order.OrderID),
		}
	case "shipped", "delivered":
		if days, ok := h.daysSinceOrder(order.OrderDate); ok && days > refundWindowDays {
			return eligibilityVerdict{
				reason:  "outside_window",
				message: fmt.Sprintf("Order %d was placed %d days ago, which is outside our %d-day refund window. Please contact our support team for special consideration.", order.OrderID, days, refundWindowDays),
			}
		}
	}
	return eligibilityVerdict{
		eligible: true,
		reason:   "eligible",
		message:  "Order is eligible for refund.",
	}
}

// daysSinceOrder returns the whole days since the order date. An unparseable
// date reports ok=false and the window check is skipped (default-permissive).
func (h *RefundHandler) daysSinceOrder(orderDate string) (int, bool) {
	placed, err := time.Parse("2006-01-02", orderDate)
	if err != nil {
		log.Warn().Str("order_date", orderDate).Msg("unparseable order date, skipping window check")
		return 0, false
	}
	return int(h.now().Sub(placed).Hours() / 24), true
}

func (h *RefundHandler) executeRefund(ctx context.Context, order contractx.OrderRecord, reason string) contractx.RoutingResult {
	fee := 0.00
	if order.Total > processingFeeThreshold {
		fee = processingFee
	}
	refundAmount := order.Total - fee

	logID := uuid.NewString()
	transactionID := uuid.NewString()

	// Both ledger calls must complete before the reply is produced. A
	// failure here is reported as a failed refund with a reference id;
	// there is no compensating rollback.
	if err := h.recordRefund(ctx, order, reason, logID, transactionID); err != nil {
		log.Error().Err(err).Int("order_id", order.OrderID).Str("log_id", logID).Msg("refund ledger failure")
		return contractx.RoutingResult{
			Message:  fmt.Sprintf("There was an error processing your refund for order %d. Please contact our support team for assistance. Reference: %s", order.OrderID, logID),
			Handler:  h.Name(),
			Category: "refund_error",
		}.WithExtra("order_id", order.OrderID).WithExtra("reference", logID)
	}

	log.Info().
		Int("order_id", order.OrderID).
		Str("transaction_id", transactionID).
		Float64("refund_amount", refundAmount).
		Msg("refund completed")

	message := fmt.Sprintf(`**Refund Processed Successfully!**

**Order ID:** %d
**Original Amount:** $%.2f
**Refund Amount:** $%.2f
**Processing Fee:** $%.2f
**Transaction ID:** %s

**Refund Details:**
   - **Reason:** %s
   - **Method:** Original payment method (%s)
   - **Processing Time:** 3-5 business days
   - **Status:** Completed

**Next Steps:**
   - You'll receive a confirmation email shortly
   - Refund will appear on your statement within 3-5 business days
   - Keep this transaction ID for your records

**Thank you for your business!** If you have any questions about this refund, please reference transaction ID %s.`,
		order.OrderID, order.Total, refundAmount, fee, transactionID,
		reason, order.PaymentMethod, transactionID,
	)

	return contractx.RoutingResult{
		Message:  message,
		Handler:  h.Name(),
		Category: "refund_processed",
	}.WithExtra("order_id", order.OrderID).
		WithExtra("transaction_id", transactionID).
		WithExtra("refund_amount", refundAmount).
		WithExtra("processing_fee", fee)
}

func (h *RefundHandler) recordRefund(ctx context.Context, order contractx.OrderRecord, reason, logID, transactionID string) error {
	if err := h.ledger.LogRequest(ctx, contractx.RefundRequest{
		LogID:           logID,
		OrderID:         order.OrderID,
		Reason:          reason,
		Priority:        refundPriority,
		EstimatedAmount: order.Total,
	}); err != nil {
		return fmt.Errorf("%w: log request: %w", contractx.ErrLedgerFailure, err)
	}

	if err := h.ledger.Complete(ctx, contractx.RefundCompletion{
		LogID:          logID,
		TransactionID:  transactionID,
		ProcessingTime: refundProcessingTime,
		RefundMethod:   refundMethod,
	}); err != nil {
		return fmt.Errorf("%w: complete: %w", contractx.ErrLedgerFailure, err)
	}
	return nil
}
