package database

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/camden-git/shastadb/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func openTestStore(t *testing.T) (*gorm.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.sqlite")
	opts := DefaultOptions()
	opts.LogLevel = logger.Silent

	db, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db, path
}

func mustExec(t *testing.T, db *gorm.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error, stmt)
	}
}

// legacyStatements recreate the first released shape: roots and instances
// only, without display_title/category and without any people tables.
var legacyStatements = []string{
	`CREATE TABLE roots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(120) NOT NULL,
		path VARCHAR(1024) NOT NULL,
		is_active BOOLEAN NOT NULL,
		created_utc DATETIME
	)`,
	`CREATE UNIQUE INDEX ix_roots_name ON roots (name)`,
	`CREATE TABLE instances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_id INTEGER NOT NULL,
		rel_path VARCHAR(2048) NOT NULL,
		name VARCHAR(512) NOT NULL,
		ext VARCHAR(32) NOT NULL,
		size_bytes INTEGER NOT NULL,
		mtime_utc DATETIME NOT NULL,
		kind VARCHAR(32) NOT NULL,
		needs_review BOOLEAN NOT NULL,
		skip_processing BOOLEAN NOT NULL,
		first_seen_utc DATETIME,
		last_seen_utc DATETIME,
		CONSTRAINT uq_instance_root_relpath UNIQUE (root_id, rel_path),
		FOREIGN KEY(root_id) REFERENCES roots (id)
	)`,
	`CREATE INDEX ix_instances_kind ON instances (kind)`,
	`CREATE INDEX ix_instances_name_ext ON instances (name, ext)`,
}

type legacyRow struct {
	ID             uint
	RootID         uint
	RelPath        string
	Name           string
	Ext            string
	SizeBytes      int64
	Kind           string
	NeedsReview    bool
	SkipProcessing bool
	FirstSeenUTC   string `gorm:"column:first_seen_utc"`
}

func readLegacyRows(t *testing.T, db *gorm.DB) []legacyRow {
	t.Helper()
	var rows []legacyRow
	require.NoError(t, db.Raw(`SELECT id, root_id, rel_path, name, ext, size_bytes, kind, needs_review, skip_processing,
		CAST(first_seen_utc AS TEXT) AS first_seen_utc FROM instances ORDER BY id`).Scan(&rows).Error)
	return rows
}

func declaredIndexNames(table string) []string {
	var names []string
	for _, ix := range Indexes {
		if ix.Table == table {
			names = append(names, ix.Name)
		}
	}
	return names
}

func TestEnsureSchemaCurrentCreatesEverythingOnEmptyStore(t *testing.T) {
	t.Parallel()

	db, _ := openTestStore(t)
	require.NoError(t, EnsureSchemaCurrent(db))

	tables, err := ListTables(db)
	require.NoError(t, err)
	// no version bookkeeping table is added
	require.Equal(t, []string{"instance_people", "instances", "people", "roots"}, tables)

	for _, table := range Tables {
		columns, err := TableColumns(db, table.Name)
		require.NoError(t, err)
		assert.Equal(t, table.ColumnNames(), columns, "columns of %s", table.Name)

		indexes, err := ListIndexes(db, table.Name)
		require.NoError(t, err)
		for _, want := range declaredIndexNames(table.Name) {
			assert.Contains(t, indexes, want, "index on %s", table.Name)
		}
	}
}

func TestEnsureSchemaCurrentIsIdempotent(t *testing.T) {
	t.Parallel()

	db, _ := openTestStore(t)
	require.NoError(t, EnsureSchemaCurrent(db))

	before, err := SchemaFingerprint(db)
	require.NoError(t, err)

	require.NoError(t, EnsureSchemaCurrent(db))

	after, err := SchemaFingerprint(db)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestEnsureSchemaCurrentUpgradesLegacyStore(t *testing.T) {
	t.Parallel()

	db, _ := openTestStore(t)
	mustExec(t, db, legacyStatements...)
	mustExec(t, db,
		`INSERT INTO roots (name, path, is_active, created_utc) VALUES ('for_doni', '/archive', 1, '2024-01-02 03:04:05')`,
		`INSERT INTO instances (root_id, rel_path, name, ext, size_bytes, mtime_utc, kind, needs_review, skip_processing, first_seen_utc, last_seen_utc)
		 VALUES (1, 'a/b.jpg', 'b.jpg', 'jpg', 1024, '2024-01-01 00:00:00', 'image', 1, 0, '2024-01-02 03:04:05', '2024-01-03 00:00:00')`,
		`INSERT INTO instances (root_id, rel_path, name, ext, size_bytes, mtime_utc, kind, needs_review, skip_processing, first_seen_utc, last_seen_utc)
		 VALUES (1, 'c/d.pdf', 'd.pdf', 'pdf', 2048, '2024-01-01 00:00:00', 'document', 0, 1, '2024-01-02 03:04:05', '2024-01-03 00:00:00')`,
	)
	rowsBefore := readLegacyRows(t, db)
	require.Len(t, rowsBefore, 2)

	require.NoError(t, EnsureSchemaCurrent(db))

	columns, err := TableColumns(db, "instances")
	require.NoError(t, err)
	require.Contains(t, columns, "display_title")
	require.Contains(t, columns, "category")
	// added columns land at the end, after the legacy ones
	require.Equal(t, []string{"display_title", "category"}, columns[len(columns)-2:])

	tables, err := ListTables(db)
	require.NoError(t, err)
	require.Contains(t, tables, "people")
	require.Contains(t, tables, "instance_people")

	indexes, err := ListIndexes(db, "instances")
	require.NoError(t, err)
	require.Contains(t, indexes, "ix_instances_display_title")
	require.Contains(t, indexes, "ix_instances_category")

	require.Equal(t, rowsBefore, readLegacyRows(t, db))

	var nullCount int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM instances WHERE display_title IS NULL AND category IS NULL`).Scan(&nullCount).Error)
	require.EqualValues(t, 2, nullCount)

	// a second run on the upgraded store changes nothing
	before, err := SchemaFingerprint(db)
	require.NoError(t, err)
	require.NoError(t, EnsureSchemaCurrent(db))
	after, err := SchemaFingerprint(db)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestEnsureSchemaCurrentAddsOnlyMissingColumns(t *testing.T) {
	t.Parallel()

	db, _ := openTestStore(t)
	mustExec(t, db, legacyStatements...)
	mustExec(t, db, `ALTER TABLE instances ADD COLUMN display_title VARCHAR(512)`)

	require.NoError(t, EnsureSchemaCurrent(db))

	columns, err := TableColumns(db, "instances")
	require.NoError(t, err)

	count := map[string]int{}
	for _, c := range columns {
		count[c]++
	}
	require.Equal(t, 1, count["display_title"])
	require.Equal(t, 1, count["category"])
}

func TestEnsureSchemaCurrentAppliesDurabilitySettings(t *testing.T) {
	t.Parallel()

	db, _ := openTestStore(t)
	require.NoError(t, EnsureSchemaCurrent(db))

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	require.Equal(t, "wal", mode)

	var synchronous int
	require.NoError(t, db.Raw("PRAGMA synchronous").Scan(&synchronous).Error)
	require.Equal(t, 1, synchronous) // NORMAL

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	require.Equal(t, 1, fk)
}

func TestEnsureSchemaCurrentFailsOnReadOnlyStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readonly.sqlite")

	rw, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	mustExec(t, rw, legacyStatements...)
	require.NoError(t, Close(rw))

	ro, err := gorm.Open(sqlite.Open("file:"+filepath.ToSlash(path)+"?mode=ro"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(ro) })

	err = EnsureSchemaCurrent(ro)
	require.Error(t, err)

	var schemaErr *SchemaMigrationError
	require.ErrorAs(t, err, &schemaErr)
	require.NotEmpty(t, schemaErr.Op)
}

func TestOpenReportsStorageUnavailable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "dir", "archive.sqlite")
	opts := DefaultOptions()
	opts.LogLevel = logger.Silent
	opts.BusyTimeout = 100 * time.Millisecond

	_, err := Open(path, opts)
	require.Error(t, err)

	var unavailable *StorageUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, path, unavailable.Path)
}

func TestDSNEscapesPath(t *testing.T) {
	t.Parallel()

	dsn := DSN("/srv/photos#2024/100%25done/archive.sqlite", 5*time.Second)
	require.Equal(t,
		"file:///srv/photos%232024/100%2525done/archive.sqlite?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL",
		dsn)
}

func TestOpenKeepsStoreAtConfiguredPath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir := filepath.Join(base, "photos#2024", "100%25done")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "archive.sqlite")

	opts := DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, EnsureSchemaCurrent(db))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())

	// nothing may be created beside the configured directory
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "photos#2024", entries[0].Name())
}

func TestHasColumnIsCaseSensitive(t *testing.T) {
	t.Parallel()

	columns := []string{"id", "display_title"}
	assert.True(t, hasColumn(columns, "display_title"))
	assert.False(t, hasColumn(columns, "Display_Title"))
	assert.False(t, hasColumn(columns, "category"))
	assert.False(t, hasColumn(nil, "id"))
}

func TestModelsMatchDeclaredTables(t *testing.T) {
	t.Parallel()

	cache := &sync.Map{}
	for _, model := range []interface{}{&models.Root{}, &models.Instance{}, &models.Person{}, &models.InstancePerson{}} {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		table, ok := LookupTable(s.Table)
		require.Truef(t, ok, "model table %s is not declared", s.Table)

		modelColumns := append([]string(nil), s.DBNames...)
		declared := table.ColumnNames()
		sort.Strings(modelColumns)
		sort.Strings(declared)
		assert.Equal(t, declared, modelColumns, "columns of %s", s.Table)
	}
}

func TestAddedColumnsAreDeclared(t *testing.T) {
	t.Parallel()

	for _, ac := range AddedColumns {
		table, ok := LookupTable(ac.Table)
		require.True(t, ok)
		assert.Contains(t, table.ColumnNames(), ac.Column.Name)
		if ac.Index != nil {
			assert.Contains(t, declaredIndexNames(ac.Table), ac.Index.Name)
		}
	}
}
