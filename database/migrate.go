package database

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnsureSchemaCurrent brings the store to the shape declared in Tables,
// AddedColumns and Indexes. It only creates tables, columns and indexes; no
// row is modified or removed. It is safe to run on every startup against a
// store of any earlier shape, from empty to current.
//
// All statements run on one pinned connection. Foreign key enforcement is
// switched off for the structural phase and switched back on, together with
// the durability settings, once the structure is committed.
func EnsureSchemaCurrent(db *gorm.DB) error {
	runID := uuid.NewString()
	started := time.Now()
	log.Printf("schema migration %s: checking store shape", runID)

	err := db.Connection(func(conn *gorm.DB) (err error) {
		if err := conn.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return migrationErr("disable foreign keys", err)
		}
		defer func() {
			if err != nil {
				// the connection goes back to the pool; do not leave it unenforced
				if fkErr := conn.Exec("PRAGMA foreign_keys = ON").Error; fkErr != nil {
					log.Printf("schema migration %s: failed to restore foreign_keys after error: %v", runID, fkErr)
				}
			}
		}()

		txErr := conn.Transaction(func(tx *gorm.DB) error {
			return migrateStructure(tx, runID)
		})
		if txErr != nil {
			var me *SchemaMigrationError
			if errors.As(txErr, &me) {
				return txErr
			}
			return migrationErr("commit", txErr)
		}

		return applyPragmas(conn, runID)
	})
	if err != nil {
		log.Printf("schema migration %s: %v", runID, err)
		return err
	}

	log.Printf("schema migration %s: store is current (%s)", runID, time.Since(started).Round(time.Millisecond))
	return nil
}

func migrateStructure(tx *gorm.DB, runID string) error {
	for _, t := range Tables {
		if err := tx.Exec(t.CreateSQL()).Error; err != nil {
			return migrationErr("create table "+t.Name, err)
		}
	}

	if err := addMissingColumns(tx, runID); err != nil {
		return err
	}

	for _, ix := range Indexes {
		if err := tx.Exec(ix.CreateSQL()).Error; err != nil {
			return migrationErr("create index "+ix.Name, err)
		}
	}
	return nil
}

// addMissingColumns probes the live table for each later-added column and
// issues ADD COLUMN only for the ones it lacks. Re-issuing ADD COLUMN for a
// present column fails with a duplicate column error, so the probe is required.
func addMissingColumns(tx *gorm.DB, runID string) error {
	live := make(map[string][]string)

	for _, ac := range AddedColumns {
		columns, ok := live[ac.Table]
		if !ok {
			var err error
			columns, err = TableColumns(tx, ac.Table)
			if err != nil {
				return migrationErr("inspect table "+ac.Table, err)
			}
			live[ac.Table] = columns
		}

		if hasColumn(columns, ac.Column.Name) {
			continue
		}

		if err := tx.Exec(ac.AddSQL()).Error; err != nil {
			return migrationErr("add column "+ac.Table+"."+ac.Column.Name, err)
		}
		if ac.Index != nil {
			if err := tx.Exec(ac.Index.CreateSQL()).Error; err != nil {
				return migrationErr("create index "+ac.Index.Name, err)
			}
		}
		live[ac.Table] = append(columns, ac.Column.Name)
		log.Printf("schema migration %s: added column %s.%s", runID, ac.Table, ac.Column.Name)
	}
	return nil
}
