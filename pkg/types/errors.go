package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreUnavailable  = errors.New("store is not initialized")
	ErrUnsupportedDriver = errors.New("driver does not support database images")
	ErrInvalidImage      = errors.New("invalid database image")
	ErrSchemaFailed      = errors.New("schema initialization failed")
)

// Table operation errors. Accessors log these and degrade to an empty
// result; they are returned only by the error-reporting internals.
var (
	ErrNoTable       = errors.New("accessor has no bound table")
	ErrMissingUnique = errors.New("missing value for unique field")
	ErrDuplicate     = errors.New("row with the same unique value exists")
	ErrMissingID     = errors.New("missing row id")
	ErrNotFound      = errors.New("row not found")
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Configuration errors.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownEncoding = errors.New("unknown image encoding")
)
