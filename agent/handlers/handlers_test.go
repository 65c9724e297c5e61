package handlers

import (
	"context"
	"errors"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
)

type fakeOrderStore struct {
	orders map[int]contractx.OrderRecord
	err    error
}

func (f *fakeOrderStore) GetOrder(_ context.Context, orderID int) (contractx.OrderRecord, bool, error) {
	if f.err != nil {
		return contractx.OrderRecord{}, false, f.err
	}
	order, ok := f.orders[orderID]
	return order, ok, nil
}

type fakeLedger struct {
	requests    []contractx.RefundRequest
	completions []contractx.RefundCompletion
	logErr      error
	completeErr error
}

func (f *fakeLedger) LogRequest(_ context.Context, req contractx.RefundRequest) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeLedger) Complete(_ context.Context, completion contractx.RefundCompletion) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completions = append(f.completions, completion)
	return nil
}

var errUnavailable = errors.New("collaborator unavailable")
