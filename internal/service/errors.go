package service

import "errors"

// Failure classes the API layer maps onto HTTP statuses. Anything not in this
// list surfaces as a 500 with the underlying message.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicate          = errors.New("already exists")
	ErrOwnRecipe          = errors.New("cannot favorite your own recipe")
	ErrAlreadyFavorited   = errors.New("recipe already in favorites")
	ErrInvalidRecipe      = errors.New("invalid recipe format")
)
