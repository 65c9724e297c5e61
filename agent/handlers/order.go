package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/textscan"
)

var orderKeywords = []string{
	"order", "status", "track", "tracking", "shipment", "delivery",
	"shipped", "delivered", "pending", "processing", "where is my",
	"when will", "estimated delivery", "order number",
}

var _ contractx.Handler = (*OrderHandler)(nil)

// OrderHandler answers order lookups and status checks.
type OrderHandler struct {
	store contractx.OrderStore
	log   interactionLog
}

func NewOrderHandler(store contractx.OrderStore) *OrderHandler {
	return &OrderHandler{
		store: store,
		log:   newInteractionLog(),
	}
}

func (h *OrderHandler) Name() contractx.HandlerName {
	return contractx.HandlerOrder
}

func (h *OrderHandler) CanHandle(message string) bool {
	if textscan.ContainsAny(message, orderKeywords...) {
		return true
	}
	_, ok := textscan.ExtractAnchoredOrderID(message, textscan.OrderPatterns)
	return ok
}

func (h *OrderHandler) Status() contractx.HandlerStatus {
	return contractx.HandlerStatus{
		Name:         h.Name(),
		Interactions: h.log.count(),
	}
}

func (h *OrderHandler) Process(ctx context.Context, message string) contractx.RoutingResult {
	result := h.process(ctx, message)
	h.log.add(message, result.Message)
	return result
}

func (h *OrderHandler) process(ctx context.Context, message string) contractx.RoutingResult {
	orderID, ok := textscan.ExtractAnchoredOrderID(message, textscan.OrderPatterns)
	if !ok {
		return contractx.RoutingResult{
			Message:  "I'd be happy to help you check your order status! Please provide your order number (usually 4-6 digits).",
			Handler:  h.Name(),
			Category: "order_inquiry",
		}.WithExtra("needs_order_id", true)
	}
	return h.lookup(ctx, orderID)
}

func (h *OrderHandler) lookup(ctx context.Context, orderID int) contractx.RoutingResult {
	log.Info().Int("order_id", orderID).Msg("looking up order")

	order, found, err := h.store.GetOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Int("order_id", orderID).Msg("order store failure")
		return contractx.RoutingResult{
			Message:  fmt.Sprintf("I apologize, but I couldn't look up order #%d right now. Please try again in a moment or contact our support team.", orderID),
			Handler:  h.Name(),
			Category: "lookup_error",
		}.WithExtra("order_id", orderID)
	}
	if !found {
		return contractx.RoutingResult{
			Message:  fmt.Sprintf("I couldn't find order #%d. Please check the order number and try again. Order numbers are usually 4-6 digits.", orderID),
			Handler:  h.Name(),
			Category: "order_not_found",
		}.WithExtra("order_id", orderID)
	}

	return contractx.RoutingResult{
		Message:  formatOrderDetails(order),
		Handler:  h.Name(),
		Category: "order_details",
	}.WithExtra("order_id", orderID).
		WithExtra("order_status", order.Status).
		WithExtra("customer_name", order.CustomerName)
}

func formatOrderDetails(order contractx.OrderRecord) string {
	var items strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&items, "   - %s (Qty: %d) - $%.2f", item.Name, item.Quantity, item.Price)
		if item.Brand != "" {
			fmt.Fprintf(&items, " by %s", item.Brand)
		}
		items.WriteByte('\n')
	}

	subtotal := order.Total - order.Tax - order.ShippingCost + order.Discount

	return fmt.Sprintf(`**Order %d Details:**

**Customer:** %s
**Email:** %s
**Items:**
%s
**Order Summary:**
   - Subtotal: $%.2f
   - Shipping: $%.2f
   - Tax: $%.2f
   - Discount: -$%.2f
   - **Total: $%.2f**

**Status:** %s
**Order Date:** %s
**Payment:** %s
**Shipping Address:** %s

%s`,
		order.OrderID,
		order.CustomerName,
		order.CustomerEmail,
		items.String(),
		subtotal,
		order.ShippingCost,
		order.Tax,
		order.Discount,
		order.Total,
		titleStatus(order.Status),
		order.OrderDate,
		order.PaymentMethod,
		order.ShippingAddress,
		statusGuidance(order),
	)
}

func statusGuidance(order contractx.OrderRecord) string {
	switch strings.ToLower(order.Status) {
	case "pending":
		return "**Status Info:** Your order is being prepared for processing. You'll receive an update within 24 hours."
	case "processing":
		return "**Status Info:** Your order is currently being processed and will ship soon. Estimated processing time: 1-2 business days."
	case "shipped":
		var b strings.Builder
		b.WriteString("**Status Info:** Your order has been shipped!\n")
		if order.TrackingNumber != "" {
			fmt.Fprintf(&b, "**Tracking Number:** %s\n", order.TrackingNumber)
		}
		estimated := order.EstimatedDelivery
		if estimated == "" {
			estimated = "Not available"
		}
		fmt.Fprintf(&b, "**Estimated Delivery:** %s\n", estimated)
		b.WriteString("**In Transit:** Package is on its way to you")
		return b.String()
	case "delivered":
		var b strings.Builder
		b.WriteString("**Status Info:** Your order has been delivered!\n")
		if order.DeliveryDate != "" {
			fmt.Fprintf(&b, "**Delivered:** %s\n", order.DeliveryDate)
		}
		if order.DeliveryConfirmation != "" {
			fmt.Fprintf(&b, "**Location:** %s\n", order.DeliveryConfirmation)
		}
		b.WriteString("**Enjoy your purchase!** If you have any issues, please let us know.")
		return b.String()
	case "cancelled":
		return "**Status Info:** This order has been cancelled. If you need assistance with a refund or have questions, please let me know."
	default:
		return fmt.Sprintf("**Status Info:** Current status is %s. If you need more information, please contact our support team.", titleStatus(order.Status))
	}
}

func titleStatus(status string) string {
	if status == "" {
		return status
	}
	lower := strings.ToLower(status)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
