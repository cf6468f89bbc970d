package users

import "errors"

// ErrInvalidRole rejects role values outside the platform's enum.
var ErrInvalidRole = errors.New("users: invalid role")
