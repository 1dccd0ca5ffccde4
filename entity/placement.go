package entity

import (
	"errors"
	"fmt"
)

// AbortKind classifies why an order placement stopped
type AbortKind string

const (
	AbortInvalidInput        AbortKind = "InvalidInput"
	AbortUnauthorized        AbortKind = "Unauthorized"
	AbortOutOfStock          AbortKind = "OutOfStock"
	AbortOrderCreationFailed AbortKind = "OrderCreationFailed"
	AbortConflict            AbortKind = "Conflict"
	AbortStorageError        AbortKind = "StorageError"
)

// ReasonSessionMismatch is used when the body names a different user than the session
const ReasonSessionMismatch IneligibleReason = "SessionMismatch"

// PlacementError is the typed abort result of the order flow
type PlacementError struct {
	Kind   AbortKind
	Reason IneligibleReason
	Detail string
	Err    error
}

func (e *PlacementError) Error() string {
	msg := string(e.Kind)
	if e.Reason != ReasonNone {
		msg += ": " + string(e.Reason)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// Code is the machine-readable reason sent to clients
func (e *PlacementError) Code() string {
	if e.Reason != ReasonNone {
		return string(e.Reason)
	}
	return string(e.Kind)
}

// Message is the user-facing text; storage details never leak here
func (e *PlacementError) Message() string {
	switch e.Kind {
	case AbortInvalidInput:
		return fmt.Sprintf("Invalid request: %s", e.Detail)
	case AbortUnauthorized:
		if e.Reason == ReasonAlreadyOrdered {
			return "Already redeemed"
		}
		return "Not authorized"
	case AbortOutOfStock:
		return "Out of stock"
	default:
		return "Please retry"
	}
}

func Abort(kind AbortKind, err error) *PlacementError {
	return &PlacementError{Kind: kind, Err: err}
}

func Invalid(detail string) *PlacementError {
	return &PlacementError{Kind: AbortInvalidInput, Detail: detail}
}

func Unauthorized(reason IneligibleReason) *PlacementError {
	return &PlacementError{Kind: AbortUnauthorized, Reason: reason}
}

// KindOf returns the abort kind of err, or empty when err is not a placement error
func KindOf(err error) AbortKind {
	var pe *PlacementError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
