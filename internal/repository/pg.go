package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pgFKViolation          = "23503"
	pgSerializationFailure = "40001"
)

// IsForeignKeyViolation reports whether err is a Postgres foreign key
// violation, e.g. deleting a room still referenced by sessions.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgFKViolation
}

// IsSerializationFailure reports whether err is a Postgres serialization
// failure, raised when concurrent serializable transactions collide.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgSerializationFailure
}
