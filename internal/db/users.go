package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pilex/internal/models"
)

const userColumns = `id, username, password, email, displayname, userlevel, enabled, lastseen, lastip`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser tolerates NULLs, which appear in columns added by RepairTables.
func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                                   models.User
		username, password, email, name, ip sql.NullString
		level                               sql.NullInt64
		enabled                             sql.NullBool
	)
	err := row.Scan(&u.ID, &username, &password, &email, &name, &level, &enabled, &u.LastSeen, &ip)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.Password = password.String
	u.Email = email.String
	u.DisplayName = name.String
	u.UserLevel = models.UserLevel(level.Int64)
	u.Enabled = enabled.Bool
	u.LastIP = ip.String
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM ` + quote(db.tableName(usersSlug)) + ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError("list users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError("scan user", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (db *DB) getUserBy(ctx context.Context, column string, value any) (*models.User, error) {
	query := db.dialect.rebind(`SELECT ` + userColumns + ` FROM ` + quote(db.tableName(usersSlug)) +
		` WHERE ` + column + ` = ?`)

	u, err := scanUser(db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbError("get user", err)
	}
	return u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUserBy(ctx, "id", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUserBy(ctx, "username", username)
}

// CreateUser inserts u and sets its ID. A taken username yields ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := db.dialect.rebind(`INSERT INTO ` + quote(db.tableName(usersSlug)) +
		` (username, password, email, displayname, userlevel, enabled) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	err := db.QueryRowContext(ctx, query,
		u.Username, u.Password, u.Email, u.DisplayName, int(u.UserLevel), u.Enabled,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return dbError("create user", err)
	}
	return nil
}

// UpdateUser writes the editable columns of u. The password column is only
// written when withPassword is set. It reports whether the row was changed:
// without a new password, a row already holding the submitted values is left
// alone and reported unchanged.
func (db *DB) UpdateUser(ctx context.Context, u *models.User, withPassword bool) (bool, error) {
	values := []any{u.Username, u.Email, u.DisplayName, int(u.UserLevel), u.Enabled}

	set := `username = ?, email = ?, displayname = ?, userlevel = ?, enabled = ?`
	args := append([]any{}, values...)
	if withPassword {
		set += `, password = ?`
		args = append(args, u.Password)
	}

	where := `id = ?`
	args = append(args, u.ID)
	if !withPassword {
		where += ` AND (username IS DISTINCT FROM ? OR email IS DISTINCT FROM ? OR displayname IS DISTINCT FROM ?` +
			` OR userlevel IS DISTINCT FROM ? OR enabled IS DISTINCT FROM ?)`
		args = append(args, values...)
	}

	query := db.dialect.rebind(`UPDATE ` + quote(db.tableName(usersSlug)) + ` SET ` + set + ` WHERE ` + where)
	res, err := db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return false, ErrDuplicate
	}
	if err != nil {
		return false, dbError("update user", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, dbError("update user", err)
	}
	return n > 0, nil
}

// TouchUser records a successful login.
func (db *DB) TouchUser(ctx context.Context, id int64, seen time.Time, ip string) error {
	query := db.dialect.rebind(`UPDATE ` + quote(db.tableName(usersSlug)) + ` SET lastseen = ?, lastip = ? WHERE id = ?`)
	if _, err := db.ExecContext(ctx, query, seen.UTC(), ip, id); err != nil {
		return dbError("touch user", err)
	}
	return nil
}
