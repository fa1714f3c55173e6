package forms

import (
	"net/url"
	"strings"

	"pilex/internal/models"
)

// ContentForm edits one record of a content type.
type ContentForm struct {
	Type   models.ContentType
	ID     int64
	Slug   string
	Status string
	Values map[string]string
	Errors Errors
}

func NewContentForm(ct models.ContentType, c models.Content) *ContentForm {
	values := make(map[string]string, len(ct.Fields))
	for _, f := range ct.Fields {
		values[f.Name] = c.Values[f.Name]
	}
	return &ContentForm{
		Type:   ct,
		ID:     c.ID,
		Slug:   c.Slug,
		Status: c.Status,
		Values: values,
		Errors: make(Errors),
	}
}

// Bind reads the slug, the status and one value per configured field.
func (f *ContentForm) Bind(form url.Values) {
	f.Slug = strings.TrimSpace(form.Get("slug"))
	f.Status = form.Get("status")
	for _, field := range f.Type.Fields {
		v := form.Get(field.Name)
		if field.Type == models.FieldText || field.Type == models.FieldDate {
			v = strings.TrimSpace(v)
		}
		f.Values[field.Name] = v
	}
}

func (f *ContentForm) schema() Schema {
	s := Schema{
		{Name: "status", Validators: []Validator{Choice(models.Statuses()...)}},
	}
	title := f.Type.TitleField()
	for _, field := range f.Type.Fields {
		var validators []Validator
		if field.Name == title {
			validators = append(validators, NotBlank())
		}
		if field.Type == models.FieldDate {
			validators = append(validators, Date())
		}
		s = append(s, Field{Name: field.Name, Validators: validators})
	}
	return s
}

func (f *ContentForm) Validate() bool {
	values := make(map[string]string, len(f.Values)+1)
	for k, v := range f.Values {
		values[k] = v
	}
	values["status"] = f.Status

	f.Errors = f.schema().Validate(values)
	return f.Errors.Empty()
}

// Apply copies the form onto c.
func (f *ContentForm) Apply(c *models.Content) {
	c.Slug = f.Slug
	c.Status = f.Status
	if c.Values == nil {
		c.Values = make(map[string]string, len(f.Values))
	}
	for k, v := range f.Values {
		c.Values[k] = v
	}
}
