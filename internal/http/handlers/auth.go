package handlers

import (
	"errors"
	"net"
	"net/http"

	"pilex/internal/http/render"
	"pilex/internal/models"
	"pilex/internal/users"
)

const LogoutMessage = "You have been logged out."

type AuthHandler struct {
	*Deps
}

func NewAuthHandler(deps *Deps) *AuthHandler {
	return &AuthHandler{Deps: deps}
}

type loginData struct {
	Username string
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return h.render(w, r, http.StatusOK, render.PageLogin, "Login", loginData{})
	}

	if err := r.ParseForm(); err != nil {
		return BadRequest(err)
	}
	username := r.PostForm.Get("username")

	user, err := h.Users.Login(r.Context(), username, r.PostForm.Get("password"), clientIP(r))
	if errors.Is(err, users.ErrInvalidCredentials) {
		// no flash: the form is shown again as is
		return h.render(w, r, http.StatusOK, render.PageLogin, "Login", loginData{Username: username})
	}
	if err != nil {
		return err
	}

	sess, err := h.Sessions.Get(r)
	if err != nil {
		return err
	}
	if err := h.Sessions.Renew(r, sess); err != nil {
		return err
	}
	sess.SetUser(models.SessionUserFrom(user))
	h.Logger.Info("user logged in", "username", user.Username)
	return h.redirect(w, r, "/pilex", nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.Sessions.Get(r)
	if err != nil {
		return err
	}
	sess.RemoveUser()

	flash := models.Info(LogoutMessage)
	return h.redirect(w, r, "/pilex/login", &flash)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
