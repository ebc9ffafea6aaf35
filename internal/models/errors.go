package models

import "errors"

// Request-level errors. Each maps to a distinct, user-visible condition.
var (
	ErrInvalidAccountNumber = errors.New("account number cannot be empty")
	ErrSubjectNotFound      = errors.New("property not found")
	ErrNoComparablesFound   = errors.New("no comparable properties found")
	ErrNoValidComparables   = errors.New("no valid comparable properties")
	ErrIncompleteSubject    = errors.New("subject property is missing valuation inputs")
	ErrStoreUnavailable     = errors.New("property store unavailable")
	ErrEmptySearchQuery     = errors.New("search query cannot be empty")
	ErrReportsDisabled      = errors.New("valuation reports are not configured")
	ErrInvalidReportKey     = errors.New("report key is not valid")
	ErrReportNotFound       = errors.New("report not found")
)

// Configuration errors
var (
	ErrEmptyToleranceLadder = errors.New("tolerance ladder must contain at least one entry")
	ErrInvalidTolerance     = errors.New("tolerances cannot be negative")
	ErrInvalidMinimum       = errors.New("minimum comparables must be at least 1")
)
