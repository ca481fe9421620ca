package database

import (
	"fmt"
	"strings"
)

// Table describes one table of the archive store. Columns and Constraints are
// rendered verbatim into a CREATE TABLE statement.
type Table struct {
	Name        string
	Columns     []Column
	Constraints []string
}

// Column is a single column definition, e.g. {"name", "VARCHAR(120) NOT NULL UNIQUE"}.
type Column struct {
	Name       string
	Definition string
}

// Index is a secondary index over one table.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// AddedColumn is a column introduced after its table was first released.
// Stores created before the column existed get it through ALTER TABLE.
type AddedColumn struct {
	Table  string
	Column Column
	Index  *Index
}

// Tables lists every table in creation order. A table referenced by a foreign
// key comes before the table holding the reference.
var Tables = []Table{
	{
		Name: "roots",
		Columns: []Column{
			{"id", "INTEGER PRIMARY KEY AUTOINCREMENT"},
			{"name", "VARCHAR(120) NOT NULL UNIQUE"},
			{"path", "VARCHAR(1024) NOT NULL"},
			{"is_active", "BOOLEAN NOT NULL DEFAULT 1"},
			{"created_utc", "DATETIME"},
		},
	},
	{
		Name: "instances",
		Columns: []Column{
			{"id", "INTEGER PRIMARY KEY AUTOINCREMENT"},
			{"root_id", "INTEGER NOT NULL REFERENCES roots(id)"},
			{"rel_path", "VARCHAR(2048) NOT NULL"},
			{"name", "VARCHAR(512) NOT NULL"},
			{"ext", "VARCHAR(32) NOT NULL"},
			{"size_bytes", "INTEGER NOT NULL"},
			{"mtime_utc", "DATETIME NOT NULL"},
			{"kind", "VARCHAR(32) NOT NULL"},
			{"needs_review", "BOOLEAN NOT NULL DEFAULT 0"},
			{"skip_processing", "BOOLEAN NOT NULL DEFAULT 0"},
			colDisplayTitle,
			colCategory,
			{"first_seen_utc", "DATETIME"},
			{"last_seen_utc", "DATETIME"},
		},
		Constraints: []string{
			"CONSTRAINT uq_instance_root_relpath UNIQUE (root_id, rel_path)",
		},
	},
	{
		Name: "people",
		Columns: []Column{
			{"id", "INTEGER PRIMARY KEY AUTOINCREMENT"},
			{"name", "VARCHAR(160) NOT NULL UNIQUE"},
		},
	},
	{
		Name: "instance_people",
		Columns: []Column{
			{"instance_id", "INTEGER NOT NULL"},
			{"person_id", "INTEGER NOT NULL"},
			{"source", "VARCHAR(32) NOT NULL DEFAULT 'manual'"},
			{"created_utc", "DATETIME"},
		},
		Constraints: []string{
			"PRIMARY KEY (instance_id, person_id)",
			"FOREIGN KEY (instance_id) REFERENCES instances(id) ON DELETE CASCADE",
			"FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE",
		},
	},
}

var (
	colDisplayTitle = Column{"display_title", "VARCHAR(512)"}
	colCategory     = Column{"category", "VARCHAR(64)"}

	ixDisplayTitle = Index{Name: "ix_instances_display_title", Table: "instances", Columns: []string{"display_title"}}
	ixCategory     = Index{Name: "ix_instances_category", Table: "instances", Columns: []string{"category"}}
)

// AddedColumns are the instance columns that shipped after the first release
// (UI-editable metadata). Both are nullable, so adding them leaves existing rows valid.
var AddedColumns = []AddedColumn{
	{Table: "instances", Column: colDisplayTitle, Index: &ixDisplayTitle},
	{Table: "instances", Column: colCategory, Index: &ixCategory},
}

// Indexes lists every secondary index. Unique constraints declared inline in
// Tables produce their own sqlite_autoindex entries and are not repeated here.
var Indexes = []Index{
	{Name: "ix_roots_name", Table: "roots", Columns: []string{"name"}},

	{Name: "ix_instances_root_id", Table: "instances", Columns: []string{"root_id"}},
	{Name: "ix_instances_name", Table: "instances", Columns: []string{"name"}},
	{Name: "ix_instances_ext", Table: "instances", Columns: []string{"ext"}},
	{Name: "ix_instances_size_bytes", Table: "instances", Columns: []string{"size_bytes"}},
	{Name: "ix_instances_mtime_utc", Table: "instances", Columns: []string{"mtime_utc"}},
	{Name: "ix_instances_kind", Table: "instances", Columns: []string{"kind"}},
	{Name: "ix_instances_needs_review", Table: "instances", Columns: []string{"needs_review"}},
	{Name: "ix_instances_skip_processing", Table: "instances", Columns: []string{"skip_processing"}},
	ixDisplayTitle,
	ixCategory,
	{Name: "ix_instances_last_seen_utc", Table: "instances", Columns: []string{"last_seen_utc"}},
	{Name: "ix_instances_name_ext", Table: "instances", Columns: []string{"name", "ext"}},

	{Name: "ix_people_name", Table: "people", Columns: []string{"name"}},

	{Name: "ix_instance_people_instance", Table: "instance_people", Columns: []string{"instance_id"}},
	{Name: "ix_instance_people_person", Table: "instance_people", Columns: []string{"person_id"}},
}

// CreateSQL renders the idempotent CREATE TABLE statement for t.
func (t Table) CreateSQL() string {
	parts := make([]string, 0, len(t.Columns)+len(t.Constraints))
	for _, c := range t.Columns {
		parts = append(parts, c.Name+" "+c.Definition)
	}
	parts = append(parts, t.Constraints...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(parts, ",\n\t"))
}

// ColumnNames returns the declared column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL renders the idempotent CREATE INDEX statement for ix.
func (ix Index) CreateSQL() string {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s(%s)", unique, ix.Name, ix.Table, strings.Join(ix.Columns, ", "))
}

// AddSQL renders the ALTER TABLE statement that adds c to an existing table.
func (c AddedColumn) AddSQL() string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.Table, c.Column.Name, c.Column.Definition)
}

// LookupTable returns the declared table with the given name.
func LookupTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
