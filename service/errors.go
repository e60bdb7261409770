// Package service is the thin orchestrator facade of §4.7: it holds no
// state beyond references to the pool, scheduler, and storage backends,
// and translates their outcomes into the handful of request/response verbs
// a front end (JSON-RPC or otherwise) dispatches by name.
package service

import "errors"

// ErrEmptyTransaction is returned by SubmitTransaction for a transaction
// with no instructions — mapped to InvalidRequest by front ends (§6).
var ErrEmptyTransaction = errors.New("service: transaction has no instructions")

// ErrNotFound is returned by every getter when the requested id/hash isn't
// known to the backing storage.
var ErrNotFound = errors.New("service: not found")

// ErrPoolFull is returned by SubmitTransaction when the pending pool has
// reached capacity — mapped to ServiceUnavailable by front ends (§5).
var ErrPoolFull = errors.New("service: pending pool is full")
