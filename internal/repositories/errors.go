package repositories

import "errors"

// ErrNotFound is wrapped by every repository when a lookup matches nothing,
// so callers can classify with errors.Is regardless of the entity.
var ErrNotFound = errors.New("not found")
