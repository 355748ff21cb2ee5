/**
 * @description
 * This file defines the closed error taxonomy for the banking service. Every
 * rejected operation maps to exactly one ErrKind, so callers (and the HTTP
 * layer) branch on the kind instead of string-matching messages. The detail
 * message is the human-readable reason surfaced to clients.
 *
 * @dependencies
 * - errors, fmt: Standard Go libraries.
 */

package domain

import (
	"errors"
	"fmt"
)

// ErrKind identifies the category of a rejected operation.
type ErrKind int

const (
	// KindInternal covers store-of-record failures during a unit of work.
	// These abort the whole unit of work and surface as a generic failure.
	KindInternal ErrKind = iota
	// KindInvalidAmount is returned for non-positive deposit/transfer amounts.
	KindInvalidAmount
	// KindNotFound is returned for unknown accounts or users.
	KindNotFound
	// KindNameConflict is returned when a unique name is already taken.
	KindNameConflict
	// KindInsufficientFunds is returned when a debit exceeds the balance.
	KindInsufficientFunds
	// KindMissingDestination is returned for a transfer with no target account.
	KindMissingDestination
	// KindUnauthenticated is returned for credential or verification failures.
	KindUnauthenticated
)

// String returns the stable error-code name for the kind.
func (k ErrKind) String() string {
	switch k {
	case KindInvalidAmount:
		return "invalid_amount"
	case KindNotFound:
		return "not_found"
	case KindNameConflict:
		return "name_conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindMissingDestination:
		return "missing_destination"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a categorized service error with a human-readable detail.
type Error struct {
	Kind   ErrKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is reports whether target is a *Error of the same kind, so sentinel-style
// comparisons like errors.Is(err, domain.ErrInsufficientFunds) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel values for errors.Is comparisons. The detail of a sentinel is the
// default reason; operations usually return Errorf with a specific one.
var (
	ErrInvalidAmount      = &Error{Kind: KindInvalidAmount, Detail: "amount must be positive"}
	ErrNotFound           = &Error{Kind: KindNotFound, Detail: "not found"}
	ErrNameConflict       = &Error{Kind: KindNameConflict, Detail: "name already in use"}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds, Detail: "insufficient funds"}
	ErrMissingDestination = &Error{Kind: KindMissingDestination, Detail: "transfer destination is required"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Detail: "authentication failed"}
)

// Errorf builds a categorized error with a formatted detail message.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, defaulting to KindInternal for plain
// errors (driver failures, connection loss) that must not leak details.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
