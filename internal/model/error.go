package model

import (
	"errors"
	"fmt"
)

// Stock error codes. These are the single error currency crossing the
// remote boundary; callers treat every one of them as "operation did not
// happen, stock unchanged".
const (
	ErrCodeCommFailure       = "COMM_FAILURE"
	ErrCodeUnknownProduct    = "UNKNOWN_PRODUCT"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidDiscount   = "INVALID_DISCOUNT"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidOrderState = "INVALID_ORDER_STATE"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeStoreError        = "STORE_ERROR"
)

// StockError is the uniform failure signal for stock and order
// operations. Code distinguishes communication failures from
// business-rule failures; both mean the operation was not applied.
type StockError struct {
	Code    string
	Message string
	Err     error
}

func (e *StockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// NewStockError creates a business-rule stock error.
func NewStockError(code, message string) *StockError {
	return &StockError{Code: code, Message: message}
}

// WrapStockError creates a stock error carrying an underlying cause.
func WrapStockError(code, message string, err error) *StockError {
	return &StockError{Code: code, Message: message, Err: err}
}

// CommError creates a communication-failure stock error. The facade
// raises these after dropping its remote handle; the caller may retry,
// which re-establishes the connection from scratch.
func CommError(message string, err error) *StockError {
	return &StockError{Code: ErrCodeCommFailure, Message: message, Err: err}
}

// IsComm reports whether err is a communication-failure stock error.
func IsComm(err error) bool {
	var se *StockError
	return errors.As(err, &se) && se.Code == ErrCodeCommFailure
}

// StockErrorCode extracts the code from err, or "" if err is not a
// StockError.
func StockErrorCode(err error) string {
	var se *StockError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Common business-rule errors.
var (
	ErrUnknownProduct    = NewStockError(ErrCodeUnknownProduct, "product number not in stock list")
	ErrInsufficientStock = NewStockError(ErrCodeInsufficientStock, "not enough stock on hand")
	ErrInvalidDiscount   = NewStockError(ErrCodeInvalidDiscount, "discount fraction must be between 0 and 1")
	ErrInvalidQuantity   = NewStockError(ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrOrderNotFound     = NewStockError(ErrCodeOrderNotFound, "order does not exist")
)
