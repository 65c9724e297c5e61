package contract

import "time"

type HandlerName string

const (
	HandlerOrder   HandlerName = "OrderHandler"
	HandlerRefund  HandlerName = "RefundHandler"
	HandlerSupport HandlerName = "GeneralSupportHandler"
)

// RouteReason records how the router arrived at a handler.
type RouteReason string

const (
	ReasonContext       RouteReason = "context"
	ReasonIntentScoring RouteReason = "intent_scoring"
	ReasonUnroutable    RouteReason = "unroutable"
	ReasonForced        RouteReason = "forced"
)

// RoutingResult is the single result shape used everywhere internally.
// Transports render Message to plain text at the outermost boundary.
type RoutingResult struct {
	Message     string         `json:"message"`
	Handler     HandlerName    `json:"routed_to,omitempty"`
	Reason      RouteReason    `json:"routing_reason,omitempty"`
	Confidence  float64        `json:"routing_confidence,omitempty"`
	Category    string         `json:"category,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// WithExtra sets a handler-specific extra (order_id, transaction_id, ...)
// and returns the result for chaining.
func (r RoutingResult) WithExtra(key string, val any) RoutingResult {
	if r.Extras == nil {
		r.Extras = make(map[string]any, 4)
	}
	r.Extras[key] = val
	return r
}

// OrderItem is a single line item on an order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Brand    string  `json:"brand,omitempty"`
}

// OrderRecord is the order shape consumed by handlers. Optional fields are
// zero-valued when the store has no data for them.
type OrderRecord struct {
	OrderID              int         `json:"order_id"`
	CustomerName         string      `json:"customer_name"`
	CustomerEmail        string      `json:"customer_email"`
	Items                []OrderItem `json:"items"`
	Total                float64     `json:"total"`
	Status               string      `json:"status"`
	OrderDate            string      `json:"order_date"` // YYYY-MM-DD
	PaymentMethod        string      `json:"payment_method"`
	ShippingAddress      string      `json:"shipping_address"`
	TrackingNumber       string      `json:"tracking_number,omitempty"`
	EstimatedDelivery    string      `json:"estimated_delivery,omitempty"`
	DeliveryDate         string      `json:"delivery_date,omitempty"`
	DeliveryConfirmation string      `json:"delivery_confirmation,omitempty"`
	ShippingCost         float64     `json:"shipping_cost,omitempty"`
	Tax                  float64     `json:"tax,omitempty"`
	Discount             float64     `json:"discount,omitempty"`
}

// RefundRequest is what the ledger records when a refund is initiated.
type RefundRequest struct {
	LogID           string
	OrderID         int
	Reason          string
	Priority        string
	EstimatedAmount float64
}

// RefundCompletion finalizes a previously logged refund request.
type RefundCompletion struct {
	LogID          string
	TransactionID  string
	ProcessingTime time.Duration
	RefundMethod   string
}

// HandlerStatus is introspection data exposed per handler.
type HandlerStatus struct {
	Name         HandlerName `json:"name"`
	Interactions int         `json:"interactions_count"`
}

// RouteRecord is one routing decision, kept for introspection.
type RouteRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Handler   HandlerName `json:"handler"`
}
