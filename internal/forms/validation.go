// Package forms binds and validates the admin forms.
package forms

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Validator validates a value and returns an error message, or "" if valid.
type Validator func(v string) string

// NotBlank rejects empty and whitespace-only values.
func NotBlank() Validator {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "This value should not be blank."
		}
		return ""
	}
}

// MinLength rejects values shorter than n characters. Blank values pass;
// combine with NotBlank to require a value.
func MinLength(n int) Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		if utf8.RuneCountInString(v) < n {
			return tooShort(n)
		}
		return ""
	}
}

func tooShort(n int) string {
	return fmt.Sprintf("This value is too short. It should have %d characters or more.", n)
}

// Email accepts a bare, well-formed address. Blank values pass.
func Email() Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v || addr.Name != "" {
			return "This value is not a valid email address."
		}
		return ""
	}
}

// Choice accepts one of options.
func Choice(options ...string) Validator {
	return func(v string) string {
		for _, o := range options {
			if v == o {
				return ""
			}
		}
		return "The value you selected is not a valid choice."
	}
}

// Date accepts YYYY-MM-DD. Blank values pass.
func Date() Validator {
	return func(v string) string {
		if v == "" {
			return ""
		}
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "This value is not a valid date."
		}
		return ""
	}
}

// Field is a form field name with its validators.
type Field struct {
	Name       string
	Validators []Validator
}

// Schema is an ordered set of fields.
type Schema []Field

// Validate runs every validator of every field against values and collects
// all messages per field.
func (s Schema) Validate(values map[string]string) Errors {
	errs := make(Errors)
	for _, f := range s {
		v := values[f.Name]
		for _, validate := range f.Validators {
			if msg := validate(v); msg != "" {
				errs.Add(f.Name, msg)
			}
		}
	}
	return errs
}

// Errors maps a field name to its validation messages.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Empty() bool {
	return len(e) == 0
}
