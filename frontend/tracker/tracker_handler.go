package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	sessioncontext "proposal/frontend/shared/context"
	"proposal/infrastructure/audit"
	"proposal/infrastructure/sqlite"
	"proposal/infrastructure/upi"
)

const trackerPath = "/tracker"

// Deps are shared by the tracker handlers.
type Deps struct {
	DB         *sqlite.DB
	Audit      *audit.Service
	Checklist  *Checklist
	Payment    PaymentState
	Dispatcher *upi.Dispatcher
}

func (d Deps) deepLink() upi.DeepLink {
	return upi.NewDeepLink(d.Payment.UPIID, d.Payment.CurrentRequested, d.Payment.PayeeName)
}

// TrackerPageQueryHandler renders the tracker for the current visitor.
func TrackerPageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		state, err := LoadState(r.Context(), d.DB, sessionID)
		if err != nil {
			slog.Error("tracker: load state failed", slog.Any("err", err))
			http.Error(w, "failed to load tracker", http.StatusInternalServerError)
			return
		}
		data := BuildPageData(d.Checklist, d.Payment, state, d.Dispatcher.QR(d.deepLink()), r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := TrackerPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render tracker page", http.StatusInternalServerError)
			return
		}
	}
}

// ToggleCheckpointCommandHandler expands or collapses one checkpoint.
func ToggleCheckpointCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIntParam(r, "id")
		if err != nil {
			http.Error(w, "invalid checkpoint id", http.StatusBadRequest)
			return
		}
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		if _, err := ToggleCheckpoint(r.Context(), d.DB, d.Audit, d.Checklist, sessionID, id); err != nil {
			slog.Error("tracker: toggle checkpoint failed", slog.Int("checkpoint_id", id), slog.Any("err", err))
			http.Error(w, "failed to toggle checkpoint", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("%s#checkpoint-%d", trackerPath, id), http.StatusSeeOther)
	}
}

// ToggleItemCommandHandler marks one checklist item done or not done.
func ToggleItemCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var key ItemKey
		var err error
		if key.CheckpointID, err = parseIntParam(r, "id"); err != nil {
			http.Error(w, "invalid checkpoint id", http.StatusBadRequest)
			return
		}
		if key.SubIndex, err = parseIntParam(r, "sub"); err != nil {
			http.Error(w, "invalid sub-checkpoint index", http.StatusBadRequest)
			return
		}
		if key.ItemIndex, err = parseIntParam(r, "item"); err != nil {
			http.Error(w, "invalid item index", http.StatusBadRequest)
			return
		}
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		if _, err := ToggleItem(r.Context(), d.DB, d.Audit, d.Checklist, sessionID, key); err != nil {
			slog.Error("tracker: toggle item failed", slog.Any("key", key), slog.Any("err", err))
			http.Error(w, "failed to toggle item", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("%s#checkpoint-%d", trackerPath, key.CheckpointID), http.StatusSeeOther)
	}
}

// SaveNotesCommandHandler stores the developer notes textarea.
func SaveNotesCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectWithStatus(w, r, "invalid form")
			return
		}
		err := SaveNotes(r.Context(), d.DB, d.Audit, sessionID, r.PostFormValue("notes"))
		switch {
		case errors.Is(err, ErrNotesTooLong):
			redirectWithStatus(w, r, fmt.Sprintf("notes exceed %d characters", MaxNotesLength))
		case err != nil:
			slog.Error("tracker: save notes failed", slog.Any("err", err))
			redirectWithStatus(w, r, "save failed")
		default:
			redirectWithStatus(w, r, "notes saved")
		}
	}
}

// PayCommandHandler initiates a payment: mobile browsers are sent to the UPI
// deep-link, everyone else gets the QR modal.
func PayCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		action := d.Dispatcher.InitiatePayment(r.UserAgent(), d.Payment.UPIID, d.Payment.CurrentRequested, d.Payment.PayeeName)
		dispatch := Dispatch{
			Reference: uuid.NewString(),
			Kind:      action.Kind.String(),
			DeepLink:  action.DeepLink,
			Amount:    d.Payment.CurrentRequested,
		}
		slog.Info("tracker: payment dispatched", slog.String("reference", dispatch.Reference), slog.String("kind", dispatch.Kind))

		if action.Kind == upi.ActionNavigate {
			if err := RecordNavigateDispatch(r.Context(), d.DB, d.Audit, sessionID, dispatch); err != nil {
				slog.Error("tracker: record dispatch failed", slog.String("reference", dispatch.Reference), slog.Any("err", err))
			}
			http.Redirect(w, r, action.DeepLink, http.StatusSeeOther)
			return
		}

		if err := OpenQRModal(r.Context(), d.DB, d.Audit, sessionID, dispatch); err != nil {
			slog.Error("tracker: open qr modal failed", slog.String("reference", dispatch.Reference), slog.Any("err", err))
			http.Error(w, "failed to start payment", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, trackerPath, http.StatusSeeOther)
	}
}

// CloseQRCommandHandler closes the QR modal.
func CloseQRCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		if err := CloseQRModal(r.Context(), d.DB, d.Audit, sessionID); err != nil {
			slog.Error("tracker: close qr modal failed", slog.Any("err", err))
			http.Error(w, "failed to close payment dialog", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, trackerPath, http.StatusSeeOther)
	}
}

// QRImageQueryHandler serves the deep-link as a QR PNG.
func QRImageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := upi.RenderQRPNG(d.deepLink().String(), upi.DefaultQRSize)
		if err != nil {
			slog.Error("tracker: render qr failed", slog.Any("err", err))
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

// ReportPDFQueryHandler downloads the tracker as a PDF.
func ReportPDFQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		state, err := LoadState(r.Context(), d.DB, sessionID)
		if err != nil {
			slog.Error("tracker: load state for report failed", slog.Any("err", err))
			http.Error(w, "failed to load tracker", http.StatusInternalServerError)
			return
		}
		pdf, err := RenderReportPDF(d.Checklist, d.Payment, state, time.Now())
		if err != nil {
			slog.Error("tracker: render report failed", slog.Any("err", err))
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="tracker-report.pdf"`)
		_, _ = w.Write(pdf)
	}
}

// SummaryQueryHandler returns the tracker summary as JSON.
func SummaryQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		state, err := LoadState(r.Context(), d.DB, sessionID)
		if err != nil {
			slog.Error("tracker: load state for summary failed", slog.Any("err", err))
			http.Error(w, "failed to load tracker", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(BuildSummary(d.Checklist, d.Payment, state))
	}
}

func visitorSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := sessioncontext.GetSessionFromContext(r.Context())
	if !ok || session.ID == "" {
		http.Error(w, "missing visitor session", http.StatusInternalServerError)
		return "", false
	}
	return session.ID, true
}

func parseIntParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func redirectWithStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, trackerPath+"?status="+url.QueryEscape(status), http.StatusSeeOther)
}
