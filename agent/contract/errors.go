package contract

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnknownHandler = errors.New("unknown handler")
	ErrStoreFailure   = errors.New("order store failure")
	ErrLedgerFailure  = errors.New("refund ledger failure")
)
