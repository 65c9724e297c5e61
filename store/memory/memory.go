// Package memory provides in-memory implementations of the order store and
// refund ledger, seeded with deterministic reference data so the whole
// system runs and tests without external services.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
)

// OrderStore is a read-only seeded order catalog. Seed dates are computed
// relative to the construction clock so refund-window behavior stays stable
// over time.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[int]contractx.OrderRecord
}

type Option func(*options)

type options struct {
	now    func() time.Time
	orders []contractx.OrderRecord
}

// WithClock fixes the reference time used for the seed order dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithOrders adds extra records on top of the seed data.
func WithOrders(orders ...contractx.OrderRecord) Option {
	return func(o *options) { o.orders = append(o.orders, orders...) }
}

func NewOrderStore(opts ...Option) *OrderStore {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	store := &OrderStore{orders: make(map[int]contractx.OrderRecord)}
	for _, order := range seedOrders(o.now()) {
		store.orders[order.OrderID] = order
	}
	for _, order := range o.orders {
		store.orders[order.OrderID] = order
	}
	return store
}

func (s *OrderStore) GetOrder(_ context.Context, orderID int) (contractx.OrderRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	return order, ok, nil
}

func seedOrders(now time.Time) []contractx.OrderRecord {
	day := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format("2006-01-02")
	}

	return []contractx.OrderRecord{
		{
			OrderID:       12345,
			CustomerName:  "John Doe",
			CustomerEmail: "john.doe@email.com",
			Items: []contractx.OrderItem{
				{Name: "Premium Wireless Headphones", Quantity: 1, Price: 79.99, Brand: "AudioTech"},
				{Name: "Phone Case", Quantity: 1, Price: 19.99, Brand: "ProtectPro"},
			},
			Total:             99.99,
			Status:            "shipped",
			OrderDate:         day(5),
			ShippingAddress:   "123 Main St, Anytown, USA 12345",
			TrackingNumber:    "TRK123456789",
			PaymentMethod:     "Credit Card ending in 4567",
			EstimatedDelivery: day(-2),
			ShippingCost:      0.00,
			Tax:               8.00,
			Discount:          0.00,
		},
		{
			OrderID:       11111,
			CustomerName:  "Bob Johnson",
			CustomerEmail: "bob.johnson@email.com",
			Items: []contractx.OrderItem{
				{Name: "Gaming Mouse", Quantity: 1, Price: 59.99, Brand: "GameGear"},
				{Name: "Mouse Pad", Quantity: 1, Price: 14.99, Brand: "GameGear"},
			},
			Total:                74.98,
			Status:               "delivered",
			OrderDate:            day(7),
			ShippingAddress:      "789 Pine St, Riverside, USA 54321",
			TrackingNumber:       "TRK987654321",
			PaymentMethod:        "Credit Card ending in 8901",
			DeliveryDate:         day(3),
			DeliveryConfirmation: "Package delivered to front door",
			ShippingCost:         5.99,
			Tax:                  6.00,
			Discount:             10.00,
		},
		{
			OrderID:       54321,
			CustomerName:  "Alice Smith",
			CustomerEmail: "alice.smith@email.com",
			Items: []contractx.OrderItem{
				{Name: "Bluetooth Speaker", Quantity: 1, Price: 89.99, Brand: "SoundWave"},
			},
			Total:             89.99,
			Status:            "processing",
			OrderDate:         day(2),
			ShippingAddress:   "456 Oak Ave, Springfield, USA 67890",
			PaymentMethod:     "PayPal",
			EstimatedDelivery: day(-3),
			ShippingCost:      7.99,
			Tax:               7.20,
			Discount:          0.00,
		},
		{
			OrderID:       67890,
			CustomerName:  "Emma Wilson",
			CustomerEmail: "emma.wilson@email.com",
			Items: []contractx.OrderItem{
				{Name: "USB-C Cable", Quantity: 2, Price: 12.99},
			},
			Total:         25.98,
			Status:        "pending",
			OrderDate:     day(1),
			PaymentMethod: "Apple Pay",
		},
		{
			OrderID:       22222,
			CustomerName:  "Michael Brown",
			CustomerEmail: "michael.brown@email.com",
			Items: []contractx.OrderItem{
				{Name: "Gaming Mouse", Quantity: 1, Price: 59.99, Brand: "GameGear"},
			},
			Total:         59.99,
			Status:        "cancelled",
			OrderDate:     day(10),
			PaymentMethod: "Google Pay",
		},
		{
			// Shipped well past the refund window.
			OrderID:       33333,
			CustomerName:  "Sarah Davis",
			CustomerEmail: "sarah.davis@email.com",
			Items: []contractx.OrderItem{
				{Name: "Bluetooth Speaker", Quantity: 1, Price: 89.99, Brand: "SoundWave"},
			},
			Total:          89.99,
			Status:         "shipped",
			OrderDate:      day(45),
			TrackingNumber: "TRK555444333",
			PaymentMethod:  "Credit Card ending in 1234",
			Tax:            7.20,
		},
	}
}

// RefundLogEntry mirrors one refund_logs row.
type RefundLogEntry struct {
	LogID               string
	OrderID             int
	Reason              string
	Timestamp           time.Time
	Status              string
	Priority            string
	EstimatedAmount     float64
	TransactionID       string
	CompletionTimestamp time.Time
	ProcessingTime      time.Duration
	RefundMethod        string
}

// RefundLedger records the refund lifecycle in memory: LogRequest inserts an
// initiated entry, Complete marks it completed.
type RefundLedger struct {
	mu      sync.Mutex
	entries map[string]*RefundLogEntry
	now     func() time.Time
}

func NewRefundLedger(opts ...Option) *RefundLedger {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &RefundLedger{
		entries: make(map[string]*RefundLogEntry),
		now:     o.now,
	}
}

func (l *RefundLedger) LogRequest(_ context.Context, req contractx.RefundRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[req.LogID]; exists {
		return fmt.Errorf("refund log %q already exists", req.LogID)
	}
	l.entries[req.LogID] = &RefundLogEntry{
		LogID:           req.LogID,
		OrderID:         req.OrderID,
		Reason:          req.Reason,
		Timestamp:       l.now(),
		Status:          "initiated",
		Priority:        req.Priority,
		EstimatedAmount: req.EstimatedAmount,
	}
	return nil
}

func (l *RefundLedger) Complete(_ context.Context, completion contractx.RefundCompletion) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[completion.LogID]
	if !ok {
		return fmt.Errorf("refund log %q not found", completion.LogID)
	}
	entry.Status = "completed"
	entry.TransactionID = completion.TransactionID
	entry.CompletionTimestamp = l.now()
	entry.ProcessingTime = completion.ProcessingTime
	entry.RefundMethod = completion.RefundMethod
	return nil
}

// Entries returns a copy of all ledger rows, for inspection.
func (l *RefundLedger) Entries() []RefundLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]RefundLogEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		entries = append(entries, *entry)
	}
	return entries
}

var (
	_ contractx.OrderStore   = (*OrderStore)(nil)
	_ contractx.RefundLedger = (*RefundLedger)(nil)
)
