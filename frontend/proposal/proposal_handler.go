package proposal

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	sessioncontext "proposal/frontend/shared/context"
	"proposal/infrastructure/audit"
	"proposal/infrastructure/sqlite"
)

const proposalPath = "/sara"

// Deps are shared by the proposal handlers.
type Deps struct {
	DB       *sqlite.DB
	Audit    *audit.Service
	Proposal *Proposal
}

// ProposalPageQueryHandler renders the proposal with the visitor's open section.
func ProposalPageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok || session.ID == "" {
			http.Error(w, "missing visitor session", http.StatusInternalServerError)
			return
		}
		a, err := LoadAccordion(r.Context(), d.DB, session.ID)
		if err != nil {
			slog.Error("proposal: load accordion failed", slog.Any("err", err))
			http.Error(w, "failed to load proposal", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ProposalPage(BuildPageData(d.Proposal, a)).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render proposal page", http.StatusInternalServerError)
			return
		}
	}
}

// ToggleSectionCommandHandler opens or closes one section.
func ToggleSectionCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Error(w, "invalid section index", http.StatusBadRequest)
			return
		}
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok || session.ID == "" {
			http.Error(w, "missing visitor session", http.StatusInternalServerError)
			return
		}
		if _, err := ToggleSection(r.Context(), d.DB, d.Audit, d.Proposal, session.ID, index); err != nil {
			slog.Error("proposal: toggle section failed", slog.Int("index", index), slog.Any("err", err))
			http.Error(w, "failed to toggle section", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("%s#section-%d", proposalPath, index), http.StatusSeeOther)
	}
}
