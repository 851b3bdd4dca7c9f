package shared

import "errors"

// ErrInvalidToken occurs when a hook caller presents a wrong bearer token.
var ErrInvalidToken = errors.New("invalid hook token")
