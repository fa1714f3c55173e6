package models

import "time"

// Field types supported by content types.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldHTML     = "html"
	FieldDate     = "date"
)

// Content statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Statuses returns the selectable content statuses.
func Statuses() []string {
	return []string{StatusPublished, StatusDraft}
}

type Field struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Label string `yaml:"label"`
}

// DisplayLabel returns the configured label or the field name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

type ContentType struct {
	Slug         string  `yaml:"slug"`
	Name         string  `yaml:"name"`
	SingularName string  `yaml:"singular_name"`
	Fields       []Field `yaml:"fields"`
}

// TitleField returns the field used as record title: "title" when present,
// else the first text field, else the first field.
func (ct ContentType) TitleField() string {
	for _, f := range ct.Fields {
		if f.Name == "title" {
			return f.Name
		}
	}
	for _, f := range ct.Fields {
		if f.Type == FieldText {
			return f.Name
		}
	}
	if len(ct.Fields) > 0 {
		return ct.Fields[0].Name
	}
	return ""
}

type Content struct {
	ID          int64
	Slug        string
	DateCreated time.Time
	DateChanged time.Time
	Username    string
	Status      string
	Values      map[string]string
}

// Title returns the value of the content type's title field.
func (c Content) Title(ct ContentType) string {
	return c.Values[ct.TitleField()]
}

// ContentQuery limits and orders a content listing.
type ContentQuery struct {
	Limit int
	Order Order
}

// Order is a column ordering. Column must be one of the base content columns.
type Order struct {
	Column string
	Desc   bool
}

// LatestChanged orders by datechanged, newest first.
var LatestChanged = Order{Column: "datechanged", Desc: true}
