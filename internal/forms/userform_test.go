package forms

import (
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilex/internal/models"
)

func validValues() url.Values {
	return url.Values{
		"username":              {"admin"},
		"email":                 {"admin@example.com"},
		"displayname":           {"Admin"},
		"userlevel":             {"3"},
		"enabled":               {"1"},
		"password":              {"secret123"},
		"password_confirmation": {"secret123"},
	}
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeFirstUser, ModeFor(false, 0))
	assert.Equal(t, ModeCreate, ModeFor(false, 2))
	assert.Equal(t, ModeEdit, ModeFor(true, 2))
	assert.Equal(t, ModeEdit, ModeFor(true, 0))
}

func TestMode_Title(t *testing.T) {
	assert.Equal(t, "Create the first user", ModeFirstUser.Title())
	assert.Equal(t, "Create a new user", ModeCreate.Title())
	assert.Equal(t, "Edit a user", ModeEdit.Title())
}

func TestNewUserForm_FirstUserForcesChoices(t *testing.T) {
	f := NewUserForm(ModeFirstUser, &models.User{UserLevel: models.LevelEditor, Enabled: false})

	assert.Equal(t, "3", f.UserLevel)
	assert.Equal(t, EnabledYes, f.Enabled)
	assert.Equal(t, []Option{{Value: "3", Label: "Developer"}}, f.LevelOptions())
	assert.Equal(t, []Option{{Value: "1", Label: "yes"}}, f.EnabledOptions())
}

func TestNewUserForm_EditPrefills(t *testing.T) {
	seen := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := NewUserForm(ModeEdit, &models.User{
		ID:          4,
		Username:    "bob",
		DisplayName: "Bob",
		UserLevel:   models.LevelAdministrator,
		Enabled:     true,
		LastSeen:    sql.NullTime{Time: seen, Valid: true},
		LastIP:      "10.1.1.1",
	})

	assert.Equal(t, int64(4), f.ID)
	assert.Equal(t, "2", f.UserLevel)
	assert.Equal(t, EnabledYes, f.Enabled)
	assert.Equal(t, "2024-03-01 10:00:00", f.LastSeen)
	assert.Len(t, f.LevelOptions(), 3)
	assert.Len(t, f.EnabledOptions(), 2)
}

func TestUserForm_Valid(t *testing.T) {
	for _, mode := range []Mode{ModeFirstUser, ModeCreate, ModeEdit} {
		f := NewUserForm(mode, &models.User{})
		f.Bind(validValues())
		assert.True(t, f.Validate(), mode.Title())
		assert.Empty(t, f.Errors)
	}
}

func TestUserForm_ShortPasswordOnPasswordField(t *testing.T) {
	for _, mode := range []Mode{ModeCreate, ModeEdit} {
		v := validValues()
		v.Set("password", "abc")
		v.Set("password_confirmation", "abc")

		f := NewUserForm(mode, &models.User{})
		f.Bind(v)
		require.False(t, f.Validate())
		assert.Equal(t, []string{"This value is too short. It should have 6 characters or more."}, f.Errors["password"])
		assert.False(t, f.Errors.Has("password_confirmation"))
	}
}

func TestUserForm_MismatchOnConfirmationOnly(t *testing.T) {
	for _, mode := range []Mode{ModeCreate, ModeEdit} {
		v := validValues()
		v.Set("password", "abcdef")
		v.Set("password_confirmation", "abcxyz")

		f := NewUserForm(mode, &models.User{})
		f.Bind(v)
		require.False(t, f.Validate())
		assert.Equal(t, []string{PasswordMismatch}, f.Errors["password_confirmation"])
		assert.False(t, f.Errors.Has("password"))
		assert.Len(t, f.Errors, 1)
	}
}

func TestUserForm_EditBlankPasswordWithConfirmation(t *testing.T) {
	v := validValues()
	v.Set("password", "")
	v.Set("password_confirmation", "abcdef")

	f := NewUserForm(ModeEdit, &models.User{ID: 1})
	f.Bind(v)
	require.False(t, f.Validate())
	assert.Equal(t, []string{PasswordMismatch}, f.Errors["password_confirmation"])
	assert.False(t, f.Errors.Has("password"))
}

func TestUserForm_MultibytePasswordLength(t *testing.T) {
	v := validValues()
	v.Set("password", "pässwö")
	v.Set("password_confirmation", "pässwö")

	f := NewUserForm(ModeCreate, &models.User{})
	f.Bind(v)
	assert.True(t, f.Validate(), f.Errors)
}

func TestUserForm_PasswordRequiredUnlessEditing(t *testing.T) {
	v := validValues()
	v.Del("password")
	v.Del("password_confirmation")

	f := NewUserForm(ModeCreate, &models.User{})
	f.Bind(v)
	require.False(t, f.Validate())
	assert.True(t, f.Errors.Has("password"))
	assert.True(t, f.Errors.Has("password_confirmation"))

	f = NewUserForm(ModeEdit, &models.User{ID: 1})
	f.Bind(v)
	assert.True(t, f.Validate())
}

func TestUserForm_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		field string
		value string
	}{
		{"username blank", ModeCreate, "username", ""},
		{"username short", ModeCreate, "username", "a"},
		{"displayname short", ModeCreate, "displayname", "b"},
		{"email malformed", ModeCreate, "email", "nope"},
		{"unknown level", ModeCreate, "userlevel", "9"},
		{"enabled not offered", ModeCreate, "enabled", "maybe"},
		{"first user lower level", ModeFirstUser, "userlevel", "1"},
		{"first user disabled", ModeFirstUser, "enabled", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validValues()
			v.Set(tt.field, tt.value)

			f := NewUserForm(tt.mode, &models.User{})
			f.Bind(v)
			require.False(t, f.Validate())
			assert.True(t, f.Errors.Has(tt.field))
			assert.Len(t, f.Errors, 1)
		})
	}
}

func TestUserForm_ReadOnlyFieldsNotBound(t *testing.T) {
	f := NewUserForm(ModeEdit, &models.User{ID: 1, LastIP: "10.0.0.1"})
	v := validValues()
	v.Set("lastip", "6.6.6.6")
	v.Set("lastseen", "2000-01-01 00:00:00")
	f.Bind(v)

	assert.Equal(t, "10.0.0.1", f.LastIP)
	assert.Empty(t, f.LastSeen)
}

func TestUserForm_Apply(t *testing.T) {
	f := NewUserForm(ModeCreate, &models.User{})
	v := validValues()
	v.Set("userlevel", "2")
	v.Set("enabled", "0")
	f.Bind(v)
	require.True(t, f.Validate())

	u := &models.User{Password: "hash"}
	f.Apply(u)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, models.LevelAdministrator, u.UserLevel)
	assert.False(t, u.Enabled)
	assert.Equal(t, "hash", u.Password)
}
