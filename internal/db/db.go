// Package db is the SQL storage of the admin backend: schema integrity and
// repair, users and content records. It works on sqlite and postgres.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"pilex/internal/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrDuplicate          = errors.New("duplicate value")
)

type DB struct {
	*sql.DB
	dialect      dialect
	prefix       string
	contentTypes []models.ContentType
}

type Options struct {
	TablePrefix  string
	ContentTypes []models.ContentType
}

// Init opens and pings the database. Tables are not created here; they are
// created by RepairTables.
func Init(driver, dsn string, opts Options) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one connection also keeps :memory:
	// databases alive for the lifetime of the pool.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{
		DB:           db,
		dialect:      d,
		prefix:       opts.TablePrefix,
		contentTypes: opts.ContentTypes,
	}, nil
}

func (db *DB) tableName(name string) string {
	return db.prefix + name
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
