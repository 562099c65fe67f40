package proposal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"

	"proposal/infrastructure/audit"
	"proposal/infrastructure/sqlite"
	"proposal/models"
)

// LoadAccordion reads the open section of a session.
func LoadAccordion(ctx context.Context, db *sqlite.DB, sessionID string) (Accordion, error) {
	var a Accordion
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		a, err = loadAccordion(ctx, tx, sessionID)
		return err
	})
	return a, err
}

func loadAccordion(ctx context.Context, tx bun.Tx, sessionID string) (Accordion, error) {
	var vs models.VisitorState
	err := tx.NewSelect().Model(&vs).Where("session_id = ?", sessionID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Accordion{}, nil
	}
	if err != nil {
		return Accordion{}, fmt.Errorf("load visitor state: %w", err)
	}
	return Accordion{Active: vs.ActiveSection}, nil
}

// ToggleSection applies Accordion.Toggle for a session and returns the new
// state.
func ToggleSection(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, p *Proposal, sessionID string, index int) (Accordion, error) {
	var a Accordion
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		before, err := loadAccordion(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		a = before
		a.Toggle(p, index)
		if sameSection(before.Active, a.Active) {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO visitor_state (session_id, active_section, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(session_id) DO UPDATE SET
  active_section = excluded.active_section,
  updated_at = CURRENT_TIMESTAMP`, sessionID, a.Active); err != nil {
			return fmt.Errorf("save active section: %w", err)
		}
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.Entry{
			SessionID:  sessionID,
			Action:     audit.ActionSectionToggle,
			EntityType: "proposal_sections",
			EntityID:   strconv.Itoa(index),
			Before:     map[string]*int{"active_section": before.Active},
			After:      map[string]*int{"active_section": a.Active},
		})
	})
	return a, err
}

func sameSection(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
