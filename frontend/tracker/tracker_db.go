package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/uptrace/bun"

	"proposal/infrastructure/audit"
	"proposal/infrastructure/sqlite"
	"proposal/models"
)

// MaxNotesLength bounds the developer notes of one session, in characters.
// Runes never outnumber the UTF-16 units a textarea maxlength counts.
const MaxNotesLength = 10000

var ErrNotesTooLong = errors.New("developer notes are too long")

// LoadState reads the tracker state of a session.
func LoadState(ctx context.Context, db *sqlite.DB, sessionID string) (State, error) {
	var s State
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		s, err = loadState(ctx, tx, sessionID)
		return err
	})
	return s, err
}

func loadState(ctx context.Context, tx bun.Tx, sessionID string) (State, error) {
	s := NewState()

	var expanded []models.ExpandedCheckpoint
	if err := tx.NewSelect().Model(&expanded).Where("session_id = ?", sessionID).Scan(ctx); err != nil {
		return State{}, fmt.Errorf("load expanded checkpoints: %w", err)
	}
	for _, e := range expanded {
		s.Expanded[e.CheckpointID] = struct{}{}
	}

	var completed []models.CompletedItem
	if err := tx.NewSelect().Model(&completed).Where("session_id = ?", sessionID).Scan(ctx); err != nil {
		return State{}, fmt.Errorf("load completed items: %w", err)
	}
	for _, c := range completed {
		s.Completed[ItemKey{CheckpointID: c.CheckpointID, SubIndex: c.SubIndex, ItemIndex: c.ItemIndex}] = struct{}{}
	}

	var vs models.VisitorState
	err := tx.NewSelect().Model(&vs).Where("session_id = ?", sessionID).Limit(1).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return State{}, fmt.Errorf("load visitor state: %w", err)
	default:
		s.Notes = vs.DeveloperNotes
		s.QROpen = vs.QROpen
	}
	return s, nil
}

// updateState loads the session state inside one write transaction, lets fn
// change it and writes back only what changed.
func updateState(ctx context.Context, db *sqlite.DB, sessionID string, fn func(ctx context.Context, tx bun.Tx, s *State) error) (State, error) {
	var after State
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := loadState(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		after = before.Clone()
		if err := fn(ctx, tx, &after); err != nil {
			return err
		}
		return persistDiff(ctx, tx, sessionID, before, after)
	})
	return after, err
}

func persistDiff(ctx context.Context, tx bun.Tx, sessionID string, before, after State) error {
	for id := range after.Expanded {
		if before.IsExpanded(id) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO expanded_checkpoints (session_id, checkpoint_id) VALUES (?, ?)`, sessionID, id); err != nil {
			return fmt.Errorf("expand checkpoint %d: %w", id, err)
		}
	}
	for id := range before.Expanded {
		if after.IsExpanded(id) {
			continue
		}
		if _, err := tx.NewDelete().Model((*models.ExpandedCheckpoint)(nil)).
			Where("session_id = ?", sessionID).
			Where("checkpoint_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("collapse checkpoint %d: %w", id, err)
		}
	}

	for key := range after.Completed {
		if before.IsItemCompleted(key) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO completed_items (session_id, checkpoint_id, sub_index, item_index) VALUES (?, ?, ?, ?)`,
			sessionID, key.CheckpointID, key.SubIndex, key.ItemIndex); err != nil {
			return fmt.Errorf("complete item %v: %w", key, err)
		}
	}
	for key := range before.Completed {
		if after.IsItemCompleted(key) {
			continue
		}
		if _, err := tx.NewDelete().Model((*models.CompletedItem)(nil)).
			Where("session_id = ?", sessionID).
			Where("checkpoint_id = ?", key.CheckpointID).
			Where("sub_index = ?", key.SubIndex).
			Where("item_index = ?", key.ItemIndex).
			Exec(ctx); err != nil {
			return fmt.Errorf("reopen item %v: %w", key, err)
		}
	}

	if before.Notes == after.Notes && before.QROpen == after.QROpen {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO visitor_state (session_id, qr_open, developer_notes, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(session_id) DO UPDATE SET
  qr_open = excluded.qr_open,
  developer_notes = excluded.developer_notes,
  updated_at = CURRENT_TIMESTAMP`, sessionID, after.QROpen, after.Notes)
	if err != nil {
		return fmt.Errorf("save visitor state: %w", err)
	}
	return nil
}

// ToggleCheckpoint flips the expansion of checkpoint id for a session.
func ToggleCheckpoint(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, checklist *Checklist, sessionID string, id int) (bool, error) {
	var expanded bool
	_, err := updateState(ctx, db, sessionID, func(ctx context.Context, tx bun.Tx, s *State) error {
		was := s.IsExpanded(id)
		expanded = s.ToggleCheckpointExpansion(checklist, id)
		if auditSvc == nil || was == expanded {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.Entry{
			SessionID:  sessionID,
			Action:     audit.ActionCheckpointToggle,
			EntityType: "checkpoints",
			EntityID:   strconv.Itoa(id),
			Before:     map[string]bool{"expanded": was},
			After:      map[string]bool{"expanded": expanded},
		})
	})
	return expanded, err
}

// ToggleItem flips the completion of one checklist item for a session.
func ToggleItem(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, checklist *Checklist, sessionID string, key ItemKey) (bool, error) {
	var completed bool
	_, err := updateState(ctx, db, sessionID, func(ctx context.Context, tx bun.Tx, s *State) error {
		was := s.IsItemCompleted(key)
		completed = s.ToggleItemCompletion(checklist, key)
		if auditSvc == nil || was == completed {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.Entry{
			SessionID:  sessionID,
			Action:     audit.ActionItemToggle,
			EntityType: "checklist_items",
			EntityID:   fmt.Sprintf("%d-%d-%d", key.CheckpointID, key.SubIndex, key.ItemIndex),
			Before:     map[string]bool{"completed": was},
			After:      map[string]bool{"completed": completed},
		})
	})
	return completed, err
}

// SaveNotes replaces the developer notes of a session.
func SaveNotes(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, sessionID, notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	_, err := updateState(ctx, db, sessionID, func(ctx context.Context, tx bun.Tx, s *State) error {
		if s.Notes == notes {
			return nil
		}
		s.Notes = notes
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.Entry{
			SessionID:  sessionID,
			Action:     audit.ActionNotesSave,
			EntityType: "developer_notes",
			EntityID:   sessionID,
			After:      map[string]int{"length": utf8.RuneCountInString(notes)},
		})
	})
	return err
}

// OpenQRModal records a QR payment dispatch and opens the modal.
func OpenQRModal(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, sessionID string, dispatch Dispatch) error {
	_, err := updateState(ctx, db, sessionID, func(ctx context.Context, tx bun.Tx, s *State) error {
		s.OpenQR()
		return writeDispatch(ctx, tx, auditSvc, sessionID, dispatch)
	})
	return err
}

// CloseQRModal closes the payment modal.
func CloseQRModal(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, sessionID string) error {
	_, err := updateState(ctx, db, sessionID, func(ctx context.Context, tx bun.Tx, s *State) error {
		if !s.QROpen {
			return nil
		}
		s.CloseQR()
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.Entry{
			SessionID:  sessionID,
			Action:     audit.ActionQRClose,
			EntityType: "payments",
			EntityID:   sessionID,
		})
	})
	return err
}

// RecordNavigateDispatch records a deep-link payment dispatch.
func RecordNavigateDispatch(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, sessionID string, dispatch Dispatch) error {
	if auditSvc == nil {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return writeDispatch(ctx, tx, auditSvc, sessionID, dispatch)
	})
}

// Dispatch describes one payment initiation for the audit trail.
type Dispatch struct {
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
	DeepLink  string `json:"deep_link"`
	Amount    int64  `json:"amount"`
}

func writeDispatch(ctx context.Context, tx bun.Tx, auditSvc *audit.Service, sessionID string, d Dispatch) error {
	if auditSvc == nil {
		return nil
	}
	return auditSvc.Write(ctx, tx, audit.Entry{
		SessionID:  sessionID,
		Action:     audit.ActionPaymentDispatch,
		EntityType: "payments",
		EntityID:   d.Reference,
		After:      d,
	})
}
