package shortener

import "errors"

var (
	// ErrNotFound is returned when no record matches a short code.
	ErrNotFound = errors.New("short url not found")

	// ErrConflict is returned when a short code is already taken.
	ErrConflict = errors.New("short code already exists")

	// ErrTooManyRequests is returned when a short code exceeded its request budget.
	ErrTooManyRequests = errors.New("rate limit exceeded")

	// ErrInvalidArgument is returned for malformed client input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable wraps transport failures of optional backends (cache, limiter, queue).
	ErrUnavailable = errors.New("backend unavailable")

	// ErrStaleTarget marks a visit event whose code no longer has a record.
	ErrStaleTarget = errors.New("stale visit target")

	// ErrCacheMiss is returned by a Cache when the code is not cached.
	ErrCacheMiss = errors.New("cache miss")
)
