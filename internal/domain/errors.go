// Package domain holds the shared error vocabulary of the
// catalog-integration layer.
package domain

import "errors"

var (
	// ErrNoItems signals that a parsed request contained nothing searchable.
	ErrNoItems = errors.New("no searchable items in request")
	// ErrParserUnavailable signals a query parser failure; callers fall back
	// to a single-keyword search over the raw text.
	ErrParserUnavailable = errors.New("query parser unavailable")
	// ErrEmptyOrder signals an order preview or creation with no lines.
	ErrEmptyOrder = errors.New("order has no lines")
)
