package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"proposal/models"
)

// Action names written by the proposal and tracker pages.
const (
	ActionSectionToggle    = "section.toggle"
	ActionCheckpointToggle = "checkpoint.toggle"
	ActionItemToggle       = "item.toggle"
	ActionNotesSave        = "notes.save"
	ActionPaymentDispatch  = "payment.dispatch"
	ActionQRClose          = "payment.qr_close"
)

// Entry is one audit record before it is written.
type Entry struct {
	SessionID  string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

// Service writes audit records inside the caller transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("audit entry %s: session id is required", e.Action)
	}
	beforeJSON, err := marshal(e.Before)
	if err != nil {
		return fmt.Errorf("audit entry %s: %w", e.Action, err)
	}
	afterJSON, err := marshal(e.After)
	if err != nil {
		return fmt.Errorf("audit entry %s: %w", e.Action, err)
	}
	log := &models.AuditLog{
		SessionID:  e.SessionID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	_, err = tx.NewInsert().Model(log).Exec(ctx)
	return err
}

// List returns the audit trail of a session, oldest first.
func (s *Service) List(ctx context.Context, tx bun.Tx, sessionID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := tx.NewSelect().
		Model(&logs).
		Where("session_id = ?", sessionID).
		OrderExpr("id ASC").
		Scan(ctx)
	return logs, err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
