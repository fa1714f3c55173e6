package db

import (
	"fmt"
	"strconv"
	"strings"
)

type columnType int

const (
	colID columnType = iota
	colString
	colText
	colInt
	colBool
	colDateTime
)

type column struct {
	name   string
	typ    columnType
	size   int
	unique bool
}

type table struct {
	name    string
	columns []column
}

// dialect hides the differences between the supported SQL engines.
type dialect interface {
	// rebind rewrites ? placeholders into the engine's native style.
	rebind(query string) string
	columnType(c column) string
	// columnsQuery lists the column names of the table bound to its single placeholder.
	columnsQuery() string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite3":
		return sqliteDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) columnType(c column) string {
	switch c.typ {
	case colID:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case colString:
		return fmt.Sprintf("VARCHAR(%d)", c.size)
	case colInt:
		return "INTEGER"
	case colBool:
		return "BOOLEAN"
	case colDateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (sqliteDialect) columnsQuery() string {
	return `SELECT name FROM pragma_table_info(?)`
}

type postgresDialect struct{}

func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) columnType(c column) string {
	switch c.typ {
	case colID:
		return "SERIAL PRIMARY KEY"
	case colString:
		return fmt.Sprintf("VARCHAR(%d)", c.size)
	case colInt:
		return "INTEGER"
	case colBool:
		return "BOOLEAN"
	case colDateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (postgresDialect) columnsQuery() string {
	return `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?`
}
