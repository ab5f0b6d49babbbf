package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given Param is not valid")
	// ErrForbidden will throw if the user is not allowed to mutate the item
	ErrForbidden = errors.New("you are not allowed to modify this item")
	// ErrUnauthorized will throw if the request carries no valid identity
	ErrUnauthorized = errors.New("authentication required")
	// ErrDepthExceeded will throw if a reply would nest deeper than allowed
	ErrDepthExceeded = errors.New("reply nesting depth exceeded")

	// ErrAggregationUnavailable marks a failed or timed out single-pipeline read.
	// It never reaches a client: the decomposed read path answers instead.
	ErrAggregationUnavailable = errors.New("aggregation pipeline unavailable")
	// ErrCacheMiss is returned by cache backends when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable marks a cache backend failure, always recovered as a miss
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrReactionConflict is returned by reaction stores when a concurrent toggle on
	// the same user and target won the race
	ErrReactionConflict = errors.New("concurrent reaction update")
)
