package tracker

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/uptrace/bun"

	"proposal/infrastructure/audit"
	"proposal/infrastructure/sqlite"
	"proposal/models"
)

func writeChecklistCSV(w io.Writer, checklist *Checklist, state State) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"checkpoint_id", "checkpoint", "status", "sub_checkpoint", "item", "completed"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, cp := range checklist.Checkpoints {
		for si, sub := range cp.SubCheckpoints {
			for ii, item := range sub.Items {
				done := state.IsItemCompleted(ItemKey{CheckpointID: cp.ID, SubIndex: si, ItemIndex: ii})
				record := []string{
					strconv.Itoa(cp.ID),
					cp.Title,
					cp.Status,
					sub.Title,
					item,
					strconv.FormatBool(done),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
	}
	return writer.Error()
}

func writeAuditCSV(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, w io.Writer, sessionID string) error {
	var logs []models.AuditLog
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		logs, err = auditSvc.List(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"created_at", "action", "entity_type", "entity_id", "before", "after"}); err != nil {
		return err
	}
	for _, l := range logs {
		record := []string{
			l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			l.Action,
			l.EntityType,
			l.EntityID,
			l.BeforeJSON,
			l.AfterJSON,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

// ChecklistCSVQueryHandler downloads every checklist item with the visitor's
// completion mark.
func ChecklistCSVQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		state, err := LoadState(r.Context(), d.DB, sessionID)
		if err != nil {
			slog.Error("tracker: load state for checklist csv failed", slog.Any("err", err))
			http.Error(w, "failed to load tracker", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=checklist.csv")
		if err := writeChecklistCSV(w, d.Checklist, state); err != nil {
			slog.Error("tracker: checklist csv failed", slog.Any("err", err))
		}
	}
}

// ActivityCSVQueryHandler downloads the visitor's audit trail.
func ActivityCSVQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := visitorSessionID(w, r)
		if !ok {
			return
		}
		if d.Audit == nil {
			http.Error(w, "activity log is disabled", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=activity.csv")
		if err := writeAuditCSV(r.Context(), d.DB, d.Audit, w, sessionID); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
	}
}
