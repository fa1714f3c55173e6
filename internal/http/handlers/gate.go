package handlers

import (
	"net/http"

	"pilex/internal/gate"
)

// RequireGate runs the access gate before next. A redirect decision stores
// its flash in the session and answers with a 302.
func (d *Deps) RequireGate(g *gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return d.Handle(func(w http.ResponseWriter, r *http.Request) error {
			sess, err := d.Sessions.Get(r)
			if err != nil {
				return err
			}

			decision, err := g.Check(r.Context(), sess.Authenticated(), r.URL.Path)
			if err != nil {
				return err
			}
			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return nil
			}

			d.Logger.Debug("gate redirect",
				"outcome", decision.Outcome.String(),
				"path", r.URL.Path,
				"to", decision.Redirect,
			)
			return d.redirect(w, r, decision.Redirect, decision.Flash)
		})
	}
}
