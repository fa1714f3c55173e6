package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"pilex/internal/models"
)

var baseContentColumns = []string{"id", "slug", "datecreated", "datechanged", "username", "status"}

func (db *DB) ContentTypes() []models.ContentType {
	return db.contentTypes
}

func (db *DB) GetContentType(slug string) (models.ContentType, error) {
	for _, ct := range db.contentTypes {
		if ct.Slug == slug {
			return ct, nil
		}
	}
	return models.ContentType{}, fmt.Errorf("%w: %q", ErrUnknownContentType, slug)
}

// GetEmptyContent returns a new, unsaved record with every field present.
func (db *DB) GetEmptyContent(slug string) (models.Content, error) {
	ct, err := db.GetContentType(slug)
	if err != nil {
		return models.Content{}, err
	}
	c := models.Content{Status: models.StatusPublished, Values: make(map[string]string, len(ct.Fields))}
	for _, f := range ct.Fields {
		c.Values[f.Name] = ""
	}
	return c, nil
}

func contentColumns(ct models.ContentType) string {
	columns := append([]string(nil), baseContentColumns...)
	for _, f := range ct.Fields {
		columns = append(columns, f.Name)
	}
	for i, c := range columns {
		columns[i] = quote(c)
	}
	return strings.Join(columns, ", ")
}

func scanContent(row rowScanner, ct models.ContentType) (models.Content, error) {
	var (
		c                      models.Content
		slug, username, status sql.NullString
		created, changed       sql.NullTime
	)
	values := make([]sql.NullString, len(ct.Fields))

	dest := []any{&c.ID, &slug, &created, &changed, &username, &status}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := row.Scan(dest...); err != nil {
		return c, err
	}

	c.Slug = slug.String
	c.DateCreated = created.Time
	c.DateChanged = changed.Time
	c.Username = username.String
	c.Status = status.String
	c.Values = make(map[string]string, len(ct.Fields))
	for i, f := range ct.Fields {
		c.Values[f.Name] = values[i].String
	}
	return c, nil
}

func orderClause(o models.Order) (string, error) {
	if o.Column == "" {
		return "", nil
	}
	valid := false
	for _, c := range baseContentColumns {
		if c == o.Column {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("cannot order by %q", o.Column)
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", quote(o.Column), dir), nil
}

// GetContent lists the records of a content type.
func (db *DB) GetContent(ctx context.Context, slug string, q models.ContentQuery) ([]models.Content, error) {
	ct, err := db.GetContentType(slug)
	if err != nil {
		return nil, err
	}

	order, err := orderClause(q.Order)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + contentColumns(ct) + ` FROM ` + quote(db.tableName(ct.Slug)) + order
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError("get "+slug, err)
	}
	defer rows.Close()

	var records []models.Content
	for rows.Next() {
		c, err := scanContent(rows, ct)
		if err != nil {
			return nil, dbError("scan "+slug, err)
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

func (db *DB) GetSingleContent(ctx context.Context, slug string, id int64) (*models.Content, error) {
	ct, err := db.GetContentType(slug)
	if err != nil {
		return nil, err
	}

	query := db.dialect.rebind(`SELECT ` + contentColumns(ct) + ` FROM ` + quote(db.tableName(ct.Slug)) + ` WHERE id = ?`)
	c, err := scanContent(db.QueryRowContext(ctx, query, id), ct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbError("get "+slug, err)
	}
	return &c, nil
}

// SaveContent inserts c when its ID is zero and updates it otherwise.
// Timestamps are maintained here; an empty slug is derived from the title.
func (db *DB) SaveContent(ctx context.Context, slug string, c *models.Content) error {
	ct, err := db.GetContentType(slug)
	if err != nil {
		return err
	}

	if c.Slug == "" {
		c.Slug = MakeSlug(c.Title(ct))
	}
	if c.Status == "" {
		c.Status = models.StatusPublished
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.DateChanged = now

	name := quote(db.tableName(ct.Slug))

	if c.ID == 0 {
		c.DateCreated = now
		columns := []string{"slug", "datecreated", "datechanged", "username", "status"}
		args := []any{c.Slug, c.DateCreated, c.DateChanged, c.Username, c.Status}
		for _, f := range ct.Fields {
			columns = append(columns, quote(f.Name))
			args = append(args, c.Values[f.Name])
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

		query := db.dialect.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			name, strings.Join(columns, ", "), placeholders))
		if err := db.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
			return dbError("insert into "+slug, err)
		}
		return nil
	}

	set := []string{"slug = ?", "datechanged = ?", "status = ?"}
	args := []any{c.Slug, c.DateChanged, c.Status}
	for _, f := range ct.Fields {
		set = append(set, quote(f.Name)+" = ?")
		args = append(args, c.Values[f.Name])
	}
	args = append(args, c.ID)

	query := db.dialect.rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", name, strings.Join(set, ", ")))
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbError("update "+slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("update "+slug, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const maxSlugLength = 128

// MakeSlug lowercases s and joins its runs of letters and digits with dashes.
func MakeSlug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}

	slug := []rune(b.String())
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return strings.TrimSuffix(string(slug), "-")
}
