package cache

import (
	"github.com/jmgilman/go/errors"
)

var (
	// ErrKeyNotFound is returned by Get when the key is absent and could not be retrieved
	ErrKeyNotFound = errors.New(errors.CodeNotFound, "the given key was not present in the cache")

	// ErrDuplicateKey is returned by Add when the key is already present
	ErrDuplicateKey = errors.New(errors.CodeAlreadyExists, "an entry with the same key already exists")

	// ErrInvalidConfig is returned by New when options fail validation
	ErrInvalidConfig = errors.New(errors.CodeInvalidInput, "invalid cache options")

	// ErrInvalidArgument is returned by bulk operations given a bad destination or range
	ErrInvalidArgument = errors.New(errors.CodeInvalidInput, "invalid argument")
)
