package ledger

import "errors"

var (
	// ErrNotFound is returned when a transaction does not exist or does not
	// belong to the requesting portfolio.
	ErrNotFound = errors.New("transaction not found")

	// ErrValidation is returned for malformed input: non-positive quantity or
	// price, unknown kind, empty instrument.
	ErrValidation = errors.New("invalid transaction")

	// ErrConsistency is returned when an operation would make the replayed
	// held quantity go negative at any point. It indicates either a bad
	// request (selling more than held) or prior data corruption; the
	// offending mutation is aborted before any write.
	ErrConsistency = errors.New("replay would produce negative holdings")

	// ErrInvalidRatio is returned for corporate-action ratios that are not
	// positive or do not match the action direction.
	ErrInvalidRatio = errors.New("invalid corporate action ratio")

	// ErrNoTransactions is returned when a corporate action finds nothing to
	// adjust on or before its effective date.
	ErrNoTransactions = errors.New("no transactions to adjust")
)
