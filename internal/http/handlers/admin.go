package handlers

import (
	"net/http"

	"pilex/internal/http/render"
	"pilex/internal/models"
)

const (
	DatabaseNeedsRepairMessage = "The database needs to be updated / repaired. Go to 'Settings' > 'Check Database' to do this now."
	DatabaseUpToDateMessage    = "Your database is already up to date."

	dashboardLatest = 5
)

type AdminHandler struct {
	*Deps
}

func NewAdminHandler(deps *Deps) *AdminHandler {
	return &AdminHandler{Deps: deps}
}

type latestRecords struct {
	Type    models.ContentType
	Records []models.Content
}

// Dashboard lists the latest changed records of every content type. With a
// broken schema it only shows a flash pointing to the database check.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	ok, err := h.Storage.CheckTablesIntegrity(ctx)
	if err != nil {
		return err
	}

	var latest []latestRecords
	if !ok {
		if err := h.addFlash(r, models.Error(DatabaseNeedsRepairMessage)); err != nil {
			return err
		}
	} else {
		for _, ct := range h.Storage.ContentTypes() {
			records, err := h.Storage.GetContent(ctx, ct.Slug, models.ContentQuery{
				Limit: dashboardLatest,
				Order: models.LatestChanged,
			})
			if err != nil {
				return err
			}
			latest = append(latest, latestRecords{Type: ct, Records: records})
		}
	}

	return h.render(w, r, http.StatusOK, render.PageDashboard, "Dashboard", latest)
}

type link struct {
	Href  string
	Label string
}

type reportData struct {
	Lines []string
	Empty string
	Links []link
}

// DBUpdate repairs the schema and lists the changes.
func (h *AdminHandler) DBUpdate(w http.ResponseWriter, r *http.Request) error {
	changes, err := h.Storage.RepairTables(r.Context())
	if err != nil {
		return err
	}

	return h.render(w, r, http.StatusOK, render.PageReport, "Database check / update", reportData{
		Lines: changes,
		Empty: DatabaseUpToDateMessage,
		Links: []link{
			{Href: "/pilex/prefill", Label: "Fill the database with sample content"},
			{Href: "/pilex", Label: "Back to the dashboard"},
		},
	})
}

// PreFill adds sample records, authored by the logged in user.
func (h *AdminHandler) PreFill(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.Sessions.Get(r)
	if err != nil {
		return err
	}
	user, _ := sess.User()

	report, err := h.Storage.PreFill(r.Context(), user.Username)
	if err != nil {
		return err
	}

	return h.render(w, r, http.StatusOK, render.PageReport, "Fill the database", reportData{
		Lines: report,
		Empty: "No content types are configured.",
		Links: []link{{Href: "/pilex", Label: "Back to the dashboard"}},
	})
}
