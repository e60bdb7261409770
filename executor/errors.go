package executor

import "errors"

// Runtime-level error taxonomy (§7): storage-wrap, transaction, execution,
// transaction-conflict, unimplemented.
var (
	// ErrEmptyTransaction is returned by Execute for a transaction with no
	// instructions; the service facade is expected to reject these at
	// submission time, but Execute guards against it too.
	ErrEmptyTransaction = errors.New("executor: transaction has no instructions")
	// ErrNotProcessing is returned by Rollback when the receipt it was asked
	// to undo is not in the Processing commitment level.
	ErrNotProcessing = errors.New("executor: receipt is not in the Processing state")
)
