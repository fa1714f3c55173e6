package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pilex/internal/db"
	"pilex/internal/models"
	"pilex/internal/security"
)

func setupService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	store, err := db.Init("sqlite3", ":memory:", db.Options{TablePrefix: "pilex_"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.RepairTables(context.Background())
	require.NoError(t, err)

	return NewService(store, &security.Hasher{Cost: bcrypt.MinCost}), store
}

func createUser(t *testing.T, s *Service, username, password string, enabled bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		DisplayName: username,
		UserLevel:   models.LevelEditor,
		Enabled:     enabled,
	}
	saved, err := s.SaveUser(context.Background(), u, password)
	require.NoError(t, err)
	require.True(t, saved)
	return u
}

func TestGetEmptyUser(t *testing.T) {
	s, _ := setupService(t)
	u := s.GetEmptyUser()
	assert.Zero(t, u.ID)
	assert.Equal(t, models.LevelEditor, u.UserLevel)
	assert.True(t, u.Enabled)
}

func TestGetUserLevels_HighestLast(t *testing.T) {
	s, _ := setupService(t)
	levels := s.GetUserLevels()
	require.NotEmpty(t, levels)
	assert.Equal(t, models.LevelDeveloper, levels[len(levels)-1].Level)
}

func TestLogin(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	seen := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return seen }

	created := createUser(t, s, "admin", "secret123", true)
	createUser(t, s, "disabled", "secret123", false)

	u, err := s.Login(ctx, "admin", "secret123", "192.0.2.1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	stored, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", stored.LastIP)
	require.True(t, stored.LastSeen.Valid)
	assert.True(t, seen.Equal(stored.LastSeen.Time))

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "admin", "secret124"},
		{"unknown user", "nobody", "secret123"},
		{"disabled user", "disabled", "secret123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, tt.username, tt.password, "192.0.2.1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestSaveUser_UpdateKeepsPasswordWhenBlank(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	u := createUser(t, s, "admin", "secret123", true)

	u.DisplayName = "Administrator"
	saved, err := s.SaveUser(ctx, u, "")
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = s.Login(ctx, "admin", "secret123", "")
	require.NoError(t, err)

	saved, err = s.SaveUser(ctx, u, "newsecret")
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = s.Login(ctx, "admin", "secret123", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "admin", "newsecret", "")
	assert.NoError(t, err)
}

func TestSaveUser_NothingChanged(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	u := createUser(t, s, "admin", "secret123", true)

	saved, err := s.SaveUser(ctx, u, "")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestSaveUser_DuplicateUsername(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()
	createUser(t, s, "admin", "secret123", true)

	saved, err := s.SaveUser(ctx, &models.User{Username: "admin"}, "secret123")
	assert.False(t, saved)
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestSaveUser_UnknownIDChangesNothing(t *testing.T) {
	s, _ := setupService(t)

	saved, err := s.SaveUser(context.Background(), &models.User{ID: 99, Username: "ghost"}, "")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestGetUser_NotFound(t *testing.T) {
	s, _ := setupService(t)
	_, err := s.GetUser(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingTouchStore struct {
	Store
	user *models.User
}

func (f failingTouchStore) GetUserByUsername(context.Context, string) (*models.User, error) {
	return f.user, nil
}

func (f failingTouchStore) TouchUser(context.Context, int64, time.Time, string) error {
	return errors.New("disk full")
}

func TestLogin_TouchErrorPropagates(t *testing.T) {
	hasher := &security.Hasher{Cost: bcrypt.MinCost}
	hash, err := hasher.HashPassword("secret123")
	require.NoError(t, err)

	s := NewService(failingTouchStore{user: &models.User{ID: 1, Password: hash, Enabled: true}}, hasher)
	_, err = s.Login(context.Background(), "admin", "secret123", "")
	require.EqualError(t, err, "disk full")
}
