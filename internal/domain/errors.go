package domain

import "errors"

var (
	// ErrNoCoverage signals that a scan cycle collected zero quotes across
	// every source. Callers must surface it as "no data", never as "no
	// arbitrage found".
	ErrNoCoverage = errors.New("no quotes collected from any source")

	// ErrQuotaExceeded marks an aggregator that rejected the request due to
	// an exhausted API quota. The scan continues in degraded mode with the
	// remaining sources.
	ErrQuotaExceeded = errors.New("api quota exceeded")

	ErrMalformedData = errors.New("malformed source data")
	ErrNotFound      = errors.New("not found")
	ErrContextDone   = errors.New("context cancelled")
)
