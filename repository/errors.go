package repository

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ConstraintKind names the store constraint a write ran into.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintOther      ConstraintKind = "other"
)

// ConstraintViolationError is returned when a write would break a uniqueness
// or referential rule enforced by the store.
type ConstraintViolationError struct {
	Kind ConstraintKind
	Err  error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// ErrInvalidSource is returned when a link carries an unknown provenance.
var ErrInvalidSource = errors.New("invalid link source")

// IsConstraintViolation reports whether err is a constraint violation of the given kind.
func IsConstraintViolation(err error, kind ConstraintKind) bool {
	var cv *ConstraintViolationError
	return errors.As(err, &cv) && cv.Kind == kind
}

// translateError maps sqlite constraint failures to ConstraintViolationError
// and leaves every other error untouched.
func translateError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	kind := ConstraintOther
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		kind = ConstraintUnique
	case sqlite3.ErrConstraintPrimaryKey:
		kind = ConstraintPrimaryKey
	case sqlite3.ErrConstraintForeignKey:
		kind = ConstraintForeignKey
	case sqlite3.ErrConstraintNotNull:
		kind = ConstraintNotNull
	case sqlite3.ErrConstraintCheck:
		kind = ConstraintCheck
	}
	return &ConstraintViolationError{Kind: kind, Err: err}
}
