package contract

import "context"

// Handler owns one support domain. CanHandle is a cheap, pure gate; Process
// performs the domain action and must encode "not found" and policy
// rejections as normal replies, never as errors.
type Handler interface {
	Name() HandlerName
	CanHandle(message string) bool
	Process(ctx context.Context, message string) RoutingResult
	Status() HandlerStatus
}

// OrderStore is the order-lookup collaborator. A missing order is reported
// via ok=false, not an error; err is reserved for store failures.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID int) (OrderRecord, bool, error)
}

// RefundLedger records refund lifecycle events. Either call may fail when the
// collaborator is unavailable; handlers convert that into an error-reference
// reply instead of propagating.
type RefundLedger interface {
	LogRequest(ctx context.Context, req RefundRequest) error
	Complete(ctx context.Context, completion RefundCompletion) error
}
