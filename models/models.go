package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VisitorSession is an anonymous browser session. ID is the digest of the
// cookie token, never the token itself.
type VisitorSession struct {
	bun.BaseModel `bun:"table:visitor_sessions,alias:vs"`

	ID        string    `bun:"id,pk"`
	UserAgent string    `bun:"user_agent,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s VisitorSession) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// VisitorState holds the scalar UI state of one session.
type VisitorState struct {
	bun.BaseModel `bun:"table:visitor_state,alias:vst"`

	SessionID      string    `bun:"session_id,pk"`
	ActiveSection  *int      `bun:"active_section"`
	QROpen         bool      `bun:"qr_open,notnull"`
	DeveloperNotes string    `bun:"developer_notes,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ExpandedCheckpoint marks a checkpoint as expanded for a session.
type ExpandedCheckpoint struct {
	bun.BaseModel `bun:"table:expanded_checkpoints,alias:ec"`

	SessionID    string    `bun:"session_id,pk"`
	CheckpointID int       `bun:"checkpoint_id,pk"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// CompletedItem marks one checklist leaf as done for a session.
type CompletedItem struct {
	bun.BaseModel `bun:"table:completed_items,alias:ci"`

	SessionID    string    `bun:"session_id,pk"`
	CheckpointID int       `bun:"checkpoint_id,pk"`
	SubIndex     int       `bun:"sub_index,pk"`
	ItemIndex    int       `bun:"item_index,pk"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditLog captures state changes and payment dispatches of a session.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	SessionID  string    `bun:"session_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
