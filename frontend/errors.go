package frontend

import "errors"

// ErrManagerRequired is returned when a session manager is not provided.
var ErrManagerRequired = errors.New("session manager required")
