package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Validation (VAL) ----

func ErrUnsupportedCurrency(code string) *AppError {
	return New("VAL_001", fmt.Sprintf("Unsupported currency: %q", code), http.StatusBadRequest)
}

func ErrInvalidSignature() *AppError {
	return New("VAL_002", "Invalid webhook signature", http.StatusBadRequest)
}

// Validation returns a VAL_003 request validation error.
func Validation(message string) *AppError {
	return New("VAL_003", message, http.StatusBadRequest)
}

// ---- Domain (DOM) ----

func ErrUnknownCurrency(code string) *AppError {
	return New("DOM_001", fmt.Sprintf("Unknown currency code: %q", code), http.StatusUnprocessableEntity)
}

func ErrInvalidUnits() *AppError {
	return New("DOM_002", "Item count must be a positive integer", http.StatusUnprocessableEntity)
}

// ---- Basket (BSK) ----

func ErrEmptyBasket() *AppError {
	return New("BSK_001", "Basket is empty", http.StatusUnprocessableEntity)
}

func ErrItemNotFound() *AppError {
	return New("BSK_002", "Basket item not found", http.StatusNotFound)
}

func ErrSKUConflict(sku string) *AppError {
	return New("BSK_003", fmt.Sprintf("Item %q already in basket with a different price", sku), http.StatusConflict)
}

// ---- Orders (ORD) ----

func ErrOrderNotFound() *AppError {
	return New("ORD_001", "Order not found", http.StatusNotFound)
}

// ---- External services (EXT) ----

func ErrRatesUnavailable(err error) *AppError {
	return Wrap("EXT_001", "Exchange rates unavailable", http.StatusServiceUnavailable, err)
}

func ErrGatewayFailure(err error) *AppError {
	return Wrap("EXT_002", "Payment gateway request failed", http.StatusBadGateway, err)
}

func ErrQueueFull() *AppError {
	return New("EXT_003", "Webhook queue is full", http.StatusServiceUnavailable)
}

func ErrQueueClosed() *AppError {
	return New("EXT_004", "Webhook processing is shutting down", http.StatusServiceUnavailable)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
