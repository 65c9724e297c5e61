// Package postgres backs the order store and refund ledger with Postgres
// via bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
)

type Config struct {
	DSN string `envconfig:"DSN" required:"true"`
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type orderRow struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID              int                   `bun:"order_id,pk"`
	CustomerName         string                `bun:"customer_name"`
	CustomerEmail        string                `bun:"customer_email"`
	Items                []contractx.OrderItem `bun:"items,type:jsonb"`
	Total                float64               `bun:"total"`
	Status               string                `bun:"status"`
	OrderDate            string                `bun:"order_date"`
	PaymentMethod        string                `bun:"payment_method"`
	ShippingAddress      string                `bun:"shipping_address"`
	TrackingNumber       string                `bun:"tracking_number,nullzero"`
	EstimatedDelivery    string                `bun:"estimated_delivery,nullzero"`
	DeliveryDate         string                `bun:"delivery_date,nullzero"`
	DeliveryConfirmation string                `bun:"delivery_confirmation,nullzero"`
	ShippingCost         float64               `bun:"shipping_cost"`
	Tax                  float64               `bun:"tax"`
	Discount             float64               `bun:"discount"`
}

func (r *orderRow) toRecord() contractx.OrderRecord {
	return contractx.OrderRecord{
		OrderID:              r.OrderID,
		CustomerName:         r.CustomerName,
		CustomerEmail:        r.CustomerEmail,
		Items:                r.Items,
		Total:                r.Total,
		Status:               r.Status,
		OrderDate:            r.OrderDate,
		PaymentMethod:        r.PaymentMethod,
		ShippingAddress:      r.ShippingAddress,
		TrackingNumber:       r.TrackingNumber,
		EstimatedDelivery:    r.EstimatedDelivery,
		DeliveryDate:         r.DeliveryDate,
		DeliveryConfirmation: r.DeliveryConfirmation,
		ShippingCost:         r.ShippingCost,
		Tax:                  r.Tax,
		Discount:             r.Discount,
	}
}

type refundLogRow struct {
	bun.BaseModel `bun:"table:refund_logs"`

	LogID                 string    `bun:"log_id,pk"`
	OrderID               int       `bun:"order_id"`
	Reason                string    `bun:"reason"`
	Timestamp             time.Time `bun:"timestamp"`
	Status                string    `bun:"status"`
	Priority              string    `bun:"priority"`
	EstimatedAmount       float64   `bun:"estimated_amount"`
	TransactionID         string    `bun:"transaction_id,nullzero"`
	CompletionTimestamp   time.Time `bun:"completion_timestamp,nullzero"`
	ProcessingTimeSeconds int64     `bun:"processing_time_seconds,nullzero"`
	RefundMethod          string    `bun:"refund_method,nullzero"`
}

// OrderStore reads orders from the orders table.
type OrderStore struct {
	db *bun.DB
}

func NewOrderStore(db *bun.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) GetOrder(ctx context.Context, orderID int) (contractx.OrderRecord, bool, error) {
	row := new(orderRow)
	err := s.db.NewSelect().
		Model(row).
		Where("order_id = ?", orderID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.OrderRecord{}, false, nil
	}
	if err != nil {
		return contractx.OrderRecord{}, false, fmt.Errorf("%w: select order %d: %w", contractx.ErrStoreFailure, orderID, err)
	}
	return row.toRecord(), true, nil
}

// RefundLedger writes the refund lifecycle to the refund_logs table: one
// initiated insert per request, one completed update per completion.
type RefundLedger struct {
	db  *bun.DB
	now func() time.Time
}

func NewRefundLedger(db *bun.DB) *RefundLedger {
	return &RefundLedger{db: db, now: time.Now}
}

func newRefundLogRow(req contractx.RefundRequest, now time.Time) *refundLogRow {
	return &refundLogRow{
		LogID:           req.LogID,
		OrderID:         req.OrderID,
		Reason:          req.Reason,
		Timestamp:       now,
		Status:          "initiated",
		Priority:        req.Priority,
		EstimatedAmount: req.EstimatedAmount,
	}
}

func (l *RefundLedger) LogRequest(ctx context.Context, req contractx.RefundRequest) error {
	row := newRefundLogRow(req, l.now())
	if _, err := l.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert refund log %s: %w", contractx.ErrLedgerFailure, req.LogID, err)
	}
	return nil
}

func (l *RefundLedger) Complete(ctx context.Context, completion contractx.RefundCompletion) error {
	res, err := l.db.NewUpdate().
		Model((*refundLogRow)(nil)).
		Set("status = ?", "completed").
		Set("transaction_id = ?", completion.TransactionID).
		Set("completion_timestamp = ?", l.now()).
		Set("processing_time_seconds = ?", int64(completion.ProcessingTime/time.Second)).
		Set("refund_method = ?", completion.RefundMethod).
		Where("log_id = ?", completion.LogID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: update refund log %s: %w", contractx.ErrLedgerFailure, completion.LogID, err)
	}
	return ensureRowUpdated(res, completion.LogID)
}

// ensureRowUpdated turns a zero-row update into a "log not found" error so a
// completion for an unknown log id never passes silently.
func ensureRowUpdated(res sql.Result, logID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", contractx.ErrLedgerFailure, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: refund log %s not found", contractx.ErrLedgerFailure, logID)
	}
	return nil
}

// CreateSchema creates the orders and refund_logs tables when missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{(*orderRow)(nil), (*refundLogRow)(nil)}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

var (
	_ contractx.OrderStore   = (*OrderStore)(nil)
	_ contractx.RefundLedger = (*RefundLedger)(nil)
)
