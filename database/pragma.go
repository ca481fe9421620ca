package database

import (
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"
)

// durabilityPragmas are session settings, applied on every startup after the
// structure is in place. foreign_keys must come last.
var durabilityPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

func applyPragmas(conn *gorm.DB, runID string) error {
	for _, p := range durabilityPragmas {
		if err := conn.Exec(p).Error; err != nil {
			return migrationErr(strings.ToLower(p), err)
		}
	}

	var mode string
	if err := conn.Raw("PRAGMA journal_mode").Scan(&mode).Error; err != nil {
		log.Printf("schema migration %s: warning: could not read journal_mode: %v", runID, err)
	} else if !strings.EqualFold(mode, "wal") {
		log.Printf("schema migration %s: warning: journal_mode is %q, WAL not available for this store", runID, mode)
	}

	var fk int
	if err := conn.Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil {
		return migrationErr("verify foreign_keys", err)
	}
	if fk != 1 {
		return migrationErr("verify foreign_keys", errors.New("foreign key enforcement is not active"))
	}
	return nil
}
