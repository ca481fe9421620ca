package database

import "fmt"

// StorageUnavailableError reports that the store file could not be opened or created.
type StorageUnavailableError struct {
	Path string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable at %s: %v", e.Path, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// SchemaMigrationError reports a structural change that could not be applied.
// The store shape is unknown afterwards and it must not be served.
type SchemaMigrationError struct {
	Op  string
	Err error
}

func (e *SchemaMigrationError) Error() string {
	return fmt.Sprintf("schema migration failed (%s): %v", e.Op, e.Err)
}

func (e *SchemaMigrationError) Unwrap() error { return e.Err }

func migrationErr(op string, err error) error {
	return &SchemaMigrationError{Op: op, Err: err}
}
