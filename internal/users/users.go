// Package users implements login and user management on top of the storage.
package users

import (
	"context"
	"errors"
	"time"

	"pilex/internal/db"
	"pilex/internal/models"
	"pilex/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrNotFound           = errors.New("user not found")
)

// Store is the part of the storage the service needs.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User, withPassword bool) (bool, error)
	TouchUser(ctx context.Context, id int64, seen time.Time, ip string) error
}

type Service struct {
	store  Store
	hasher *security.Hasher
	now    func() time.Time
}

func NewService(store Store, hasher *security.Hasher) *Service {
	return &Service{store: store, hasher: hasher, now: time.Now}
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetEmptyUser returns the defaults of a new user.
func (s *Service) GetEmptyUser() *models.User {
	return &models.User{UserLevel: models.LevelEditor, Enabled: true}
}

func (s *Service) GetUserLevels() []models.LevelChoice {
	return models.UserLevels()
}

// Login checks the credentials and records lastseen and lastip. Unknown
// users, wrong passwords and disabled accounts all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !u.Enabled || !s.hasher.ComparePasswords(u.Password, password) {
		return nil, ErrInvalidCredentials
	}

	seen := s.now()
	if err := s.store.TouchUser(ctx, u.ID, seen, ip); err != nil {
		return nil, err
	}
	u.LastSeen.Time, u.LastSeen.Valid = seen, true
	u.LastIP = ip
	return u, nil
}

// SaveUser creates or updates u. A non-empty password replaces the stored
// hash. It reports whether anything was written.
func (s *Service) SaveUser(ctx context.Context, u *models.User, password string) (bool, error) {
	if password != "" {
		hash, err := s.hasher.HashPassword(password)
		if err != nil {
			return false, err
		}
		u.Password = hash
	}

	if u.ID == 0 {
		err := s.store.CreateUser(ctx, u)
		if errors.Is(err, db.ErrDuplicate) {
			return false, ErrDuplicateUsername
		}
		return err == nil, err
	}

	changed, err := s.store.UpdateUser(ctx, u, password != "")
	if errors.Is(err, db.ErrDuplicate) {
		return false, ErrDuplicateUsername
	}
	return changed, err
}
