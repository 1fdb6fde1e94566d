package pages

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPageNotFound    = errors.New("pages: page not found")
	ErrContentNotFound = errors.New("pages: locale content not found")
	ErrNotPublished    = errors.New("pages: page has no live snapshot")
	ErrSlugTaken       = errors.New("pages: slug already in use")
	// ErrConflict reports a write carrying a stale version token.
	ErrConflict = errors.New("pages: version conflict")
	// ErrPersistence reports a failed transactional write. Nothing was applied.
	ErrPersistence = errors.New("pages: persistence failure")
)

// PageNotFoundError reports a missing page by id or slug.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.Key)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// ConflictError carries the version the caller read and the stored version.
type ConflictError struct {
	PageID   uuid.UUID
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("page %s: expected version %d, stored version is %d", e.PageID, e.Expected, e.Actual)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// PersistenceError wraps a store failure raised inside a write transaction.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("pages: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// IsConflict reports whether err is a stale version rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func persistenceFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict *ConflictError
	var notFound *PageNotFoundError
	if errors.As(err, &conflict) || errors.As(err, &notFound) || errors.Is(err, ErrSlugTaken) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
