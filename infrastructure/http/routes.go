package http

import (
	"proposal/frontend/proposal"
	"proposal/frontend/tracker"

	"github.com/go-chi/chi/v5"
)

// RegisterProposalRoutes registers the proposal accordion.
func (s *Server) RegisterProposalRoutes(r chi.Router) chi.Router {
	d := proposal.Deps{DB: s.DB, Audit: s.Audit, Proposal: s.Pages.Proposal}
	r.Get("/sara", proposal.ProposalPageQueryHandler(d))
	r.Post("/sara/sections/{index}/toggle", proposal.ToggleSectionCommandHandler(d))
	return r
}

// RegisterTrackerRoutes registers the checkpoint tracker and payment routes.
func (s *Server) RegisterTrackerRoutes(r chi.Router) chi.Router {
	d := tracker.Deps{
		DB:         s.DB,
		Audit:      s.Audit,
		Checklist:  s.Pages.Checklist,
		Payment:    s.Pages.Payment,
		Dispatcher: s.Pages.Dispatcher,
	}
	r.Route("/tracker", func(r chi.Router) {
		r.Get("/", tracker.TrackerPageQueryHandler(d))
		r.Post("/checkpoints/{id}/toggle", tracker.ToggleCheckpointCommandHandler(d))
		r.Post("/checkpoints/{id}/subs/{sub}/items/{item}/toggle", tracker.ToggleItemCommandHandler(d))
		r.Post("/notes", tracker.SaveNotesCommandHandler(d))
		r.Post("/pay", tracker.PayCommandHandler(d))
		r.Post("/qr/close", tracker.CloseQRCommandHandler(d))
		r.Get("/qr.png", tracker.QRImageQueryHandler(d))
		r.Get("/report.pdf", tracker.ReportPDFQueryHandler(d))
		r.Get("/api/summary", tracker.SummaryQueryHandler(d))
		r.Get("/export/checklist.csv", tracker.ChecklistCSVQueryHandler(d))
		r.Get("/export/activity.csv", tracker.ActivityCSVQueryHandler(d))
	})
	return r
}
