package services

import (
	"errors"

	"github.com/diewo77/stock-manager/internal/policy"
)

// access decides which roles may perform restricted operations.
var access = policy.Default()

var (
	// ErrForbidden is returned when the acting user lacks the role required
	// for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials covers unknown users, inactive users and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
