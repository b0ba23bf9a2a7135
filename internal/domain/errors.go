package domain

import "errors"

var (
	// ErrSourceNotRegistered is returned when no catalog client is registered for a requested source
	ErrSourceNotRegistered = errors.New("catalog source not registered")

	// ErrProductNotFound is returned when the upstream catalog has no such product
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidID is returned when a product or source identifier fails validation
	ErrInvalidID = errors.New("invalid identifier")

	// ErrIncompatibleUnits is returned when two units cannot be converted into each other
	ErrIncompatibleUnits = errors.New("incompatible units")

	// ErrNetwork is returned when the upstream catalog cannot be reached or keeps failing
	ErrNetwork = errors.New("catalog network failure")

	// ErrTimeout is returned when a single upstream request exceeds its deadline
	ErrTimeout = errors.New("catalog request timed out")

	// ErrRateLimited is returned when the upstream keeps answering HTTP 429
	ErrRateLimited = errors.New("catalog rate limit exceeded")

	// ErrUpstreamStatus is returned for non-retryable HTTP statuses
	ErrUpstreamStatus = errors.New("unexpected catalog response status")

	// ErrCircuitOpen is returned when the per-source circuit breaker rejects a request
	ErrCircuitOpen = errors.New("catalog circuit breaker open")

	// ErrDecode is returned when an upstream payload cannot be parsed
	ErrDecode = errors.New("failed to decode catalog response")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
