package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// TableColumns returns the column names of table as the store reports them,
// in declaration order. A missing table yields an empty slice.
func TableColumns(db *gorm.DB, table string) ([]string, error) {
	queryBuilder := psql.Select("name").
		From("pragma_table_info").
		Where(sq.Eq{"arg": table}).
		OrderBy("cid")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for TableColumns: %w", err)
	}

	rows, err := db.Raw(sqlStr, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return columns, nil
}

// hasColumn compares names case-sensitively, the way the column was declared.
func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// ListTables returns the names of all user tables, sorted.
func ListTables(db *gorm.DB) ([]string, error) {
	return listMaster(db, sq.And{
		sq.Eq{"type": "table"},
		sq.NotLike{"name": "sqlite_%"},
	})
}

// ListIndexes returns the names of all indexes on table, including the
// automatic indexes backing UNIQUE and PRIMARY KEY constraints.
func ListIndexes(db *gorm.DB, table string) ([]string, error) {
	return listMaster(db, sq.Eq{"type": "index", "tbl_name": table})
}

func listMaster(db *gorm.DB, where sq.Sqlizer) ([]string, error) {
	sqlStr, args, err := psql.Select("name").
		From("sqlite_master").
		Where(where).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for sqlite_master: %w", err)
	}

	names := []string{}
	if err := db.Raw(sqlStr, args...).Scan(&names).Error; err != nil {
		return nil, fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	return names, nil
}

type masterEntry struct {
	Type    string
	Name    string
	TblName string
	SQL     string
}

// SchemaFingerprint hashes every schema object the store holds. Two stores
// with the same fingerprint have identical tables, columns and indexes.
func SchemaFingerprint(db *gorm.DB) (string, error) {
	sqlStr, args, err := psql.Select("type", "name", "tbl_name", "COALESCE(sql, '') AS sql").
		From("sqlite_master").
		Where(sq.NotLike{"name": "sqlite_stat%"}).
		OrderBy("type", "name").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build SQL query for SchemaFingerprint: %w", err)
	}

	var entries []masterEntry
	if err := db.Raw(sqlStr, args...).Scan(&entries).Error; err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\n", e.Type, e.Name, e.TblName, e.SQL)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
