package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pilex/internal/forms"
	"pilex/internal/http/render"
	"pilex/internal/models"
	"pilex/internal/users"
)

const DuplicateUsernameMessage = "This username is already in use."

type UserHandler struct {
	*Deps
}

func NewUserHandler(deps *Deps) *UserHandler {
	return &UserHandler{Deps: deps}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	list, err := h.Users.GetUsers(r.Context())
	if err != nil {
		return err
	}
	return h.render(w, r, http.StatusOK, render.PageUsers, "Users", list)
}

// Edit shows and saves a user. An empty id creates one; while no users
// exist the form creates the first, most privileged user.
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	user, err := h.load(r)
	if err != nil {
		return err
	}

	count := 0
	if user.ID == 0 {
		existing, err := h.Users.GetUsers(ctx)
		if err != nil {
			return err
		}
		count = len(existing)
	}
	form := forms.NewUserForm(forms.ModeFor(user.ID != 0, count), user)

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return BadRequest(err)
		}
		form.Bind(r.PostForm)

		if form.Validate() {
			form.Apply(user)
			saved, err := h.Users.SaveUser(ctx, user, form.Password)
			switch {
			case errors.Is(err, users.ErrDuplicateUsername):
				form.Errors.Add("username", DuplicateUsernameMessage)
			case err != nil:
				return err
			default:
				flash := models.Success(fmt.Sprintf("User %s has been saved.", user.Username))
				if !saved {
					flash = models.Error(fmt.Sprintf("User %s could not be saved, or nothing was changed.", user.Username))
				}
				return h.redirect(w, r, "/pilex/users", &flash)
			}
		}
	}

	return h.render(w, r, http.StatusOK, render.PageEditUser, form.Title(), form)
}

func (h *UserHandler) load(r *http.Request) (*models.User, error) {
	idVar := mux.Vars(r)["id"]
	if idVar == "" {
		return h.Users.GetEmptyUser(), nil
	}

	id, err := strconv.ParseInt(idVar, 10, 64)
	if err != nil {
		return nil, NotFound(err)
	}
	u, err := h.Users.GetUser(r.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, NotFound(fmt.Errorf("user %d not found", id))
	}
	return u, err
}
