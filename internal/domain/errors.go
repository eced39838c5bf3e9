package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUpstream is returned when a remote service call fails
	ErrUpstream = errors.New("upstream request failed")

	// ErrNotFound is returned when a remote service has nothing for the request
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrStorage is returned when the persistent store fails
	ErrStorage = errors.New("storage failure")

	// ErrUnknownMessage is returned for message types the background does not handle
	ErrUnknownMessage = errors.New("unknown message type")
)
