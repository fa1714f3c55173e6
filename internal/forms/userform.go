package forms

import (
	"net/url"
	"strconv"
	"strings"

	"pilex/internal/models"
	"pilex/internal/security"
)

// Mode is the state of the user edit form.
type Mode int

const (
	// ModeFirstUser creates the first user: highest level and enabled only.
	ModeFirstUser Mode = iota
	// ModeCreate creates another user; the password is mandatory.
	ModeCreate
	// ModeEdit edits an existing user; a blank password keeps the current one.
	ModeEdit
)

// ModeFor picks the form mode for an existing or new user given the number
// of users in storage.
func ModeFor(existing bool, userCount int) Mode {
	switch {
	case existing:
		return ModeEdit
	case userCount == 0:
		return ModeFirstUser
	default:
		return ModeCreate
	}
}

func (m Mode) Title() string {
	switch m {
	case ModeFirstUser:
		return "Create the first user"
	case ModeCreate:
		return "Create a new user"
	default:
		return "Edit a user"
	}
}

const (
	EnabledYes = "1"
	EnabledNo  = "0"
)

const PasswordMismatch = "Passwords must match."

// Option is a select option.
type Option struct {
	Value string
	Label string
}

type UserForm struct {
	Mode Mode
	ID   int64

	Username             string
	Email                string
	DisplayName          string
	UserLevel            string
	Enabled              string
	Password             string
	PasswordConfirmation string

	// read-only
	LastSeen string
	LastIP   string

	Errors Errors
}

// NewUserForm fills the form from u. In first-user mode the level and the
// enabled flag are forced to the only values offered.
func NewUserForm(mode Mode, u *models.User) *UserForm {
	f := &UserForm{
		Mode:        mode,
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		UserLevel:   strconv.Itoa(int(u.UserLevel)),
		Enabled:     EnabledNo,
		LastSeen:    u.LastSeenString(),
		LastIP:      u.LastIP,
		Errors:      make(Errors),
	}
	if u.Enabled {
		f.Enabled = EnabledYes
	}
	if mode == ModeFirstUser {
		levels := models.UserLevels()
		f.UserLevel = strconv.Itoa(int(levels[len(levels)-1].Level))
		f.Enabled = EnabledYes
	}
	return f
}

func (f *UserForm) Title() string {
	return f.Mode.Title()
}

// LevelOptions returns the selectable levels, only the highest one in
// first-user mode.
func (f *UserForm) LevelOptions() []Option {
	levels := models.UserLevels()
	if f.Mode == ModeFirstUser {
		levels = levels[len(levels)-1:]
	}
	options := make([]Option, 0, len(levels))
	for _, l := range levels {
		options = append(options, Option{Value: strconv.Itoa(int(l.Level)), Label: l.Name})
	}
	return options
}

func (f *UserForm) EnabledOptions() []Option {
	if f.Mode == ModeFirstUser {
		return []Option{{Value: EnabledYes, Label: "yes"}}
	}
	return []Option{{Value: EnabledYes, Label: "yes"}, {Value: EnabledNo, Label: "no"}}
}

// Bind reads the submitted values. Read-only fields are never bound.
func (f *UserForm) Bind(form url.Values) {
	f.Username = strings.TrimSpace(form.Get("username"))
	f.Email = strings.TrimSpace(form.Get("email"))
	f.DisplayName = strings.TrimSpace(form.Get("displayname"))
	f.UserLevel = form.Get("userlevel")
	f.Enabled = form.Get("enabled")
	f.Password = form.Get("password")
	f.PasswordConfirmation = form.Get("password_confirmation")
}

func optionValues(options []Option) []string {
	v := make([]string, len(options))
	for i, o := range options {
		v[i] = o.Value
	}
	return v
}

func (f *UserForm) schema() Schema {
	s := Schema{
		{Name: "username", Validators: []Validator{NotBlank(), MinLength(2)}},
		{Name: "email", Validators: []Validator{Email()}},
		{Name: "displayname", Validators: []Validator{NotBlank(), MinLength(2)}},
		{Name: "userlevel", Validators: []Validator{Choice(optionValues(f.LevelOptions())...)}},
		{Name: "enabled", Validators: []Validator{Choice(optionValues(f.EnabledOptions())...)}},
	}
	if f.Mode != ModeEdit {
		s = append(s,
			Field{Name: "password", Validators: []Validator{NotBlank()}},
			Field{Name: "password_confirmation", Validators: []Validator{NotBlank()}},
		)
	}
	return s
}

// Validate runs the schema and the password rule and stores the result in
// f.Errors. A short password is reported on the password field; a mismatch
// only on the confirmation, also when the password was left blank.
func (f *UserForm) Validate() bool {
	f.Errors = f.schema().Validate(map[string]string{
		"username":              f.Username,
		"email":                 f.Email,
		"displayname":           f.DisplayName,
		"userlevel":             f.UserLevel,
		"enabled":               f.Enabled,
		"password":              f.Password,
		"password_confirmation": f.PasswordConfirmation,
	})

	if f.Password != "" && security.ValidatePassword(f.Password) != nil {
		f.Errors.Add("password", tooShort(security.MinPasswordLength))
	} else if f.Password != f.PasswordConfirmation {
		f.Errors.Add("password_confirmation", PasswordMismatch)
	}

	return f.Errors.Empty()
}

// Apply copies the validated values onto u. The password is handled by the
// caller.
func (f *UserForm) Apply(u *models.User) {
	level, _ := strconv.Atoi(f.UserLevel)
	u.Username = f.Username
	u.Email = f.Email
	u.DisplayName = f.DisplayName
	u.UserLevel = models.UserLevel(level)
	u.Enabled = f.Enabled == EnabledYes
}
