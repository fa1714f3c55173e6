package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"pilex/internal/gate"
	"pilex/internal/http/render"
	"pilex/internal/models"
	"pilex/internal/security"
)

// Storage is the storage the handlers work with.
type Storage interface {
	gate.IntegrityChecker
	CheckTablesIntegrity(ctx context.Context) (bool, error)
	ContentTypes() []models.ContentType
	GetContentType(slug string) (models.ContentType, error)
	GetContent(ctx context.Context, slug string, q models.ContentQuery) ([]models.Content, error)
	GetSingleContent(ctx context.Context, slug string, id int64) (*models.Content, error)
	GetEmptyContent(slug string) (models.Content, error)
	SaveContent(ctx context.Context, slug string, c *models.Content) error
	PreFill(ctx context.Context, username string) ([]string, error)
}

type Users interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetEmptyUser() *models.User
	GetUserLevels() []models.LevelChoice
	Login(ctx context.Context, username, password, ip string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User, password string) (bool, error)
}

// Deps bundles the collaborators shared by all handlers.
type Deps struct {
	Storage  Storage
	Users    Users
	Sessions *security.SessionStore
	Renderer *render.Renderer
	Logger   *slog.Logger
}

// render consumes the pending flashes, saves the session and writes page.
func (d *Deps) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) error {
	sess, err := d.Sessions.Get(r)
	if err != nil {
		return err
	}

	p := render.Page{
		Title:        title,
		Flashes:      sess.Flashes(),
		ContentTypes: d.Storage.ContentTypes(),
		Data:         data,
	}
	if u, ok := sess.User(); ok {
		p.User = &u
	}

	if err := sess.Save(r, w); err != nil {
		return err
	}
	return d.Renderer.Render(w, status, page, p)
}

// redirect stores flash, if any, and redirects with 302.
func (d *Deps) redirect(w http.ResponseWriter, r *http.Request, to string, flash *models.Flash) error {
	sess, err := d.Sessions.Get(r)
	if err != nil {
		return err
	}
	if flash != nil {
		sess.AddFlash(*flash)
	}
	if err := sess.Save(r, w); err != nil {
		return err
	}
	http.Redirect(w, r, to, http.StatusFound)
	return nil
}

// addFlash queues a flash for the page rendered next in this request.
func (d *Deps) addFlash(r *http.Request, f models.Flash) error {
	sess, err := d.Sessions.Get(r)
	if err != nil {
		return err
	}
	sess.AddFlash(f)
	return nil
}
