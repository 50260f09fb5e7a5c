package selection

import "errors"

var (
	ErrSearchUnavailable = errors.New("search provider unavailable")
	ErrNoResults         = errors.New("no results")
	ErrResolveFailed     = errors.New("could not resolve a playable source")
)
