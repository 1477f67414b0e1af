package domain

import (
	"coilflow/common"
	"errors"
	"fmt"
	"net/http"

	"github.com/fundwit/go-commons/types"
)

// Error is a sentinel domain error that knows how it is presented over http.
type Error struct {
	status  int
	code    string
	message string
}

func newError(status int, code, message string) *Error {
	return &Error{status: status, code: code, message: message}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: e.status, Code: e.code, Message: e.message}
}

var (
	ErrNotFound            = newError(http.StatusNotFound, "work_order.not_found", "work order not found")
	ErrNoActiveUsage       = newError(http.StatusConflict, "work_order.no_active_usage", "no active coil usage")
	ErrUsageAlreadyOpen    = newError(http.StatusInternalServerError, "coil_usage.already_open", "coil usage already open")
	ErrUsageAlreadyClosed  = newError(http.StatusInternalServerError, "coil_usage.already_closed", "coil usage already closed")
	ErrConcurrencyConflict = newError(http.StatusConflict, "work_order.concurrency_conflict", "work order was modified concurrently")
	ErrTimeout             = newError(http.StatusGatewayTimeout, "common.timeout", "operation timed out")
	ErrActorRequired       = newError(http.StatusUnauthorized, "common.actor_required", "actor is required")
	ErrNoCoilAssigned      = newError(http.StatusConflict, "work_order.no_coil_assigned", "no coil assigned")
	ErrInvalidSwapReason   = newError(http.StatusBadRequest, "coil_usage.invalid_swap_reason", "invalid swap reason")
)

type InvalidTransitionError struct {
	From      Status
	Operation Operation
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("operation %s is not allowed from status %s", e.Operation, e.From)
}

func (e *InvalidTransitionError) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{
		Status:  http.StatusConflict,
		Code:    "work_order.invalid_transition",
		Message: e.Error(),
		Data:    map[string]string{"from": string(e.From), "operation": string(e.Operation)},
	}
}

// InvariantViolationError means stored or computed state breaks a lifecycle invariant, it is a bug not a user error.
type InvariantViolationError struct {
	WorkOrderID types.ID
	Reason      string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated on work order %d: %s", e.WorkOrderID, e.Reason)
}

func (e *InvariantViolationError) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusInternalServerError, Code: "work_order.invariant_violation", Message: e.Error()}
}

func violation(id types.ID, format string, args ...interface{}) error {
	return &InvariantViolationError{WorkOrderID: id, Reason: fmt.Sprintf(format, args...)}
}

// Timeout wraps a deadline or cancellation cause so that both errors.Is(err, ErrTimeout) and the cause match.
func Timeout(cause error) error {
	if cause == nil || errors.Is(cause, ErrTimeout) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrTimeout, cause)
}

// IsRetryable reports whether the caller may re-read and retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrTimeout)
}
