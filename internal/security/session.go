package security

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"pilex/internal/models"
)

const userKey = "user"

func init() {
	gob.Register(models.SessionUser{})
	gob.Register(models.Flash{})
}

// SessionStore wraps a gorilla sessions store under a fixed session name.
type SessionStore struct {
	store sessions.Store
	name  string
}

func NewSessionStore(store sessions.Store, name string) *SessionStore {
	return &SessionStore{store: store, name: name}
}

// SecretKey returns the signing key for secret. An empty secret yields a
// random key, so sessions do not survive a restart.
func SecretKey(secret string) []byte {
	if secret == "" {
		return securecookie.GenerateRandomKey(32)
	}
	return []byte(secret)
}

// NewCookieStore keeps the session in a signed cookie.
func NewCookieStore(secret string, opts sessions.Options) *sessions.CookieStore {
	store := sessions.NewCookieStore(SecretKey(secret))
	store.Options = &opts
	store.MaxAge(opts.MaxAge)
	return store
}

// CookieOptions returns the cookie settings shared by both backends.
func CookieOptions(maxAge int, secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Get returns the request's session. A session whose cookie can no longer be
// decoded is replaced by a fresh one; any other store error is returned.
func (s *SessionStore) Get(r *http.Request) (*Session, error) {
	sess, err := s.store.Get(r, s.name)
	if err != nil {
		var cookieErr securecookie.Error
		if sess == nil || !errors.As(err, &cookieErr) || !cookieErr.IsDecode() {
			return nil, err
		}
		// gorilla returns a new session alongside decode errors
		sess.IsNew = true
	}
	return &Session{sess: sess}, nil
}

// discarder is implemented by stores keeping session values server side.
type discarder interface {
	Discard(ctx context.Context, id string) error
}

// Renew gives sess a new ID on its next save and drops the values stored
// under the old one. Called when the session is granted a user.
func (s *SessionStore) Renew(r *http.Request, sess *Session) error {
	if d, ok := s.store.(discarder); ok && sess.sess.ID != "" {
		if err := d.Discard(r.Context(), sess.sess.ID); err != nil {
			return err
		}
	}
	sess.sess.ID = ""
	sess.sess.IsNew = true
	return nil
}

type Session struct {
	sess *sessions.Session
}

// User returns the logged in user, if any.
func (s *Session) User() (models.SessionUser, bool) {
	u, ok := s.sess.Values[userKey].(models.SessionUser)
	return u, ok
}

func (s *Session) Authenticated() bool {
	_, ok := s.User()
	return ok
}

func (s *Session) SetUser(u models.SessionUser) {
	s.sess.Values[userKey] = u
}

func (s *Session) RemoveUser() {
	delete(s.sess.Values, userKey)
}

func (s *Session) AddFlash(f models.Flash) {
	s.sess.AddFlash(f)
}

// Flashes consumes the pending flash messages.
func (s *Session) Flashes() []models.Flash {
	var flashes []models.Flash
	for _, v := range s.sess.Flashes() {
		if f, ok := v.(models.Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	return s.sess.Save(r, w)
}
