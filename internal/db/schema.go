package db

import (
	"context"
	"fmt"
	"strings"

	"pilex/internal/models"
)

const usersSlug = "users"

func (db *DB) usersTable() table {
	return table{
		name: db.tableName(usersSlug),
		columns: []column{
			{name: "id", typ: colID},
			{name: "username", typ: colString, size: 32, unique: true},
			{name: "password", typ: colString, size: 128},
			{name: "email", typ: colString, size: 128},
			{name: "lastseen", typ: colDateTime},
			{name: "lastip", typ: colString, size: 45},
			{name: "displayname", typ: colString, size: 32},
			{name: "userlevel", typ: colInt},
			{name: "enabled", typ: colBool},
		},
	}
}

func (db *DB) contentTable(ct models.ContentType) table {
	columns := []column{
		{name: "id", typ: colID},
		{name: "slug", typ: colString, size: 128},
		{name: "datecreated", typ: colDateTime},
		{name: "datechanged", typ: colDateTime},
		{name: "username", typ: colString, size: 32},
		{name: "status", typ: colString, size: 32},
	}
	for _, f := range ct.Fields {
		c := column{name: f.Name, typ: colText}
		if f.Type == models.FieldText {
			c.typ, c.size = colString, 256
		}
		columns = append(columns, c)
	}
	return table{name: db.tableName(ct.Slug), columns: columns}
}

func (db *DB) tables() []table {
	tables := []table{db.usersTable()}
	for _, ct := range db.contentTypes {
		tables = append(tables, db.contentTable(ct))
	}
	return tables
}

type tableDiff struct {
	table   table
	exists  bool
	missing []column
}

func (d tableDiff) ok() bool {
	return d.exists && len(d.missing) == 0
}

func (db *DB) existingColumns(ctx context.Context, name string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, db.dialect.rebind(db.dialect.columnsQuery()), name)
	if err != nil {
		return nil, dbError("list columns of "+name, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, dbError("scan column of "+name, err)
		}
		columns[strings.ToLower(c)] = true
	}
	return columns, rows.Err()
}

func (db *DB) diff(ctx context.Context, t table) (tableDiff, error) {
	existing, err := db.existingColumns(ctx, t.name)
	if err != nil {
		return tableDiff{}, err
	}

	d := tableDiff{table: t, exists: len(existing) > 0}
	for _, c := range t.columns {
		if !existing[c.name] {
			d.missing = append(d.missing, c)
		}
	}
	return d, nil
}

// CheckUserTableIntegrity reports whether the users table exists with all columns.
func (db *DB) CheckUserTableIntegrity(ctx context.Context) (bool, error) {
	d, err := db.diff(ctx, db.usersTable())
	if err != nil {
		return false, err
	}
	return d.ok(), nil
}

// CheckTablesIntegrity reports whether every expected table exists with all columns.
func (db *DB) CheckTablesIntegrity(ctx context.Context) (bool, error) {
	for _, t := range db.tables() {
		d, err := db.diff(ctx, t)
		if err != nil {
			return false, err
		}
		if !d.ok() {
			return false, nil
		}
	}
	return true, nil
}

// RepairTables creates missing tables and adds missing columns. It returns
// one line per change; an empty result means the schema was up to date.
func (db *DB) RepairTables(ctx context.Context) ([]string, error) {
	var changes []string

	for _, t := range db.tables() {
		d, err := db.diff(ctx, t)
		if err != nil {
			return changes, err
		}

		if !d.exists {
			if _, err := db.ExecContext(ctx, db.createTableSQL(t)); err != nil {
				return changes, dbError("create table "+t.name, err)
			}
			changes = append(changes, fmt.Sprintf("Created table `%s`.", t.name))
			continue
		}

		for _, c := range d.missing {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				quote(t.name), quote(c.name), db.dialect.columnType(c))
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return changes, dbError("add column "+c.name+" to "+t.name, err)
			}
			changes = append(changes, fmt.Sprintf("Added column `%s` to table `%s`.", c.name, t.name))
		}
	}

	return changes, nil
}

func (db *DB) createTableSQL(t table) string {
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		def := quote(c.name) + " " + db.dialect.columnType(c)
		if c.unique {
			def += " UNIQUE"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.name), strings.Join(defs, ", "))
}
