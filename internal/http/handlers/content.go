package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pilex/internal/db"
	"pilex/internal/forms"
	"pilex/internal/http/render"
	"pilex/internal/models"
)

const overviewLimit = 100

type ContentHandler struct {
	*Deps
}

func NewContentHandler(deps *Deps) *ContentHandler {
	return &ContentHandler{Deps: deps}
}

func (h *ContentHandler) contentType(r *http.Request) (models.ContentType, error) {
	ct, err := h.Storage.GetContentType(mux.Vars(r)["contenttypeslug"])
	if errors.Is(err, db.ErrUnknownContentType) {
		return ct, NotFound(err)
	}
	return ct, err
}

type overviewData struct {
	Type    models.ContentType
	Records []models.Content
}

func (h *ContentHandler) Overview(w http.ResponseWriter, r *http.Request) error {
	ct, err := h.contentType(r)
	if err != nil {
		return err
	}

	records, err := h.Storage.GetContent(r.Context(), ct.Slug, models.ContentQuery{
		Limit: overviewLimit,
		Order: models.LatestChanged,
	})
	if err != nil {
		return err
	}

	return h.render(w, r, http.StatusOK, render.PageOverview, ct.Name, overviewData{Type: ct, Records: records})
}

// Edit shows and saves a record. An empty id creates a new one.
func (h *ContentHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	ct, err := h.contentType(r)
	if err != nil {
		return err
	}

	content, err := h.load(r, ct)
	if err != nil {
		return err
	}

	form := forms.NewContentForm(ct, content)
	title := "New " + ct.SingularName
	if content.ID != 0 {
		title = "Edit " + ct.SingularName
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return BadRequest(err)
		}
		form.Bind(r.PostForm)

		if form.Validate() {
			form.Apply(&content)
			if content.ID == 0 {
				sess, err := h.Sessions.Get(r)
				if err != nil {
					return err
				}
				user, _ := sess.User()
				content.Username = user.Username
			}
			isNew := content.ID == 0

			err := h.Storage.SaveContent(r.Context(), ct.Slug, &content)
			if err == nil {
				msg := fmt.Sprintf("The changes to this %s have been saved.", ct.SingularName)
				if isNew {
					msg = fmt.Sprintf("The new %s has been saved.", ct.SingularName)
				}
				flash := models.Success(msg)
				return h.redirect(w, r, "/pilex/overview/"+ct.Slug, &flash)
			}

			h.Logger.Error("save content failed", "contenttype", ct.Slug, "id", content.ID, "error", err)
			if err := h.addFlash(r, models.Error(fmt.Sprintf("There was an error saving this %s.", ct.SingularName))); err != nil {
				return err
			}
		}
	}

	return h.render(w, r, http.StatusOK, render.PageEditContent, title, form)
}

func (h *ContentHandler) load(r *http.Request, ct models.ContentType) (models.Content, error) {
	idVar := mux.Vars(r)["id"]
	if idVar == "" {
		return h.Storage.GetEmptyContent(ct.Slug)
	}

	id, err := strconv.ParseInt(idVar, 10, 64)
	if err != nil {
		return models.Content{}, NotFound(err)
	}
	c, err := h.Storage.GetSingleContent(r.Context(), ct.Slug, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Content{}, NotFound(fmt.Errorf("%s %d not found", ct.SingularName, id))
	}
	if err != nil {
		return models.Content{}, err
	}
	return *c, nil
}
