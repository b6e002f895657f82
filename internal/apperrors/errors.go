// Package apperrors defines the typed errors the reconciliation engine
// returns across its boundary. Every operation surfaces failures as an
// *Error carrying a Kind (the broad category callers branch on) and a
// stable machine Code (the exact rule that fired). Nothing in the engine
// panics across package boundaries.
package apperrors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the broad error category. Handlers map kinds onto HTTP status
// codes; services map them onto retry decisions.
type Kind string

const (
	// KindValidation marks caller-correctable input problems.
	KindValidation Kind = "validation"
	// KindNotFound marks lookups of absent invoices, transactions or matches.
	KindNotFound Kind = "not_found"
	// KindBusinessRule marks state-machine guard and invariant violations.
	KindBusinessRule Kind = "business_rule"
	// KindPersistence marks storage failures. Not retried internally.
	KindPersistence Kind = "persistence"
)

// Code identifies the exact failure. Codes are part of the wire contract
// and never change meaning.
type Code string

const (
	CodeMissingInvoiceID     Code = "MISSING_INVOICE_ID"
	CodeMissingTransactionID Code = "MISSING_TRANSACTION_ID"
	CodeScoreOutOfRange      Code = "SCORE_OUT_OF_RANGE"
	CodeToleranceOutOfRange  Code = "TOLERANCE_OUT_OF_RANGE"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"

	CodeInvoiceNotFound     Code = "INVOICE_NOT_FOUND"
	CodeTransactionNotFound Code = "TRANSACTION_NOT_FOUND"
	CodeMatchNotFound       Code = "MATCH_NOT_FOUND"

	CodeTransactionAlreadyReconciled Code = "TRANSACTION_ALREADY_RECONCILED"
	CodeTransactionNotReconciled     Code = "TRANSACTION_NOT_RECONCILED"
	CodeTransactionIsReconciled      Code = "TRANSACTION_IS_RECONCILED"
	CodeTransactionIgnored           Code = "TRANSACTION_IGNORED"
	CodeTransactionNotIgnored        Code = "TRANSACTION_NOT_IGNORED"
	CodePoorMatchScore               Code = "POOR_MATCH_SCORE"
	CodeDuplicateMatch               Code = "DUPLICATE_MATCH"
	CodeOwnerMismatch                Code = "OWNER_MISMATCH"

	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// Error is the single error type crossing the engine boundary.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation builds a caller-correctable input error.
func Validation(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an absent-entity error.
func NotFound(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// BusinessRule builds a state-machine or invariant violation error.
func BusinessRule(code Code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure, capturing the call stack of the
// failing repository operation for diagnostics.
func Persistence(cause error, format string, args ...interface{}) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}
	return &Error{
		Kind:    KindPersistence,
		Code:    CodeStorageFailure,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf extracts the Kind from err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf extracts the Code from err, or "" when err is not an engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err is an engine error carrying the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
