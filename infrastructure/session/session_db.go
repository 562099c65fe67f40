package session

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"proposal/infrastructure/sqlite"
	"proposal/models"
)

const maxUserAgentLen = 512

// Create persists a new visitor session and its empty state row.
func Create(ctx context.Context, db *sqlite.DB, id, userAgent string, expiresAt time.Time) (models.VisitorSession, error) {
	if len(userAgent) > maxUserAgentLen {
		userAgent = userAgent[:maxUserAgentLen]
	}
	s := models.VisitorSession{
		ID:        id,
		UserAgent: userAgent,
		ExpiresAt: expiresAt.UTC(),
	}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&s).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO visitor_state (session_id) VALUES (?)`, id)
		return err
	})
	if err != nil {
		return models.VisitorSession{}, err
	}
	return s, nil
}

// Load returns the session with the given id or sql.ErrNoRows.
func Load(ctx context.Context, db *sqlite.DB, id string) (models.VisitorSession, error) {
	var s models.VisitorSession
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&s).Where("vs.id = ?", id).Limit(1).Scan(ctx)
	})
	return s, err
}

// Delete removes a session; its state rows cascade.
func Delete(ctx context.Context, db *sqlite.DB, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.VisitorSession)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// PruneExpired deletes every session that expired before now and reports how
// many were removed.
func PruneExpired(ctx context.Context, db *sqlite.DB, now time.Time) (int64, error) {
	var removed int64
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.VisitorSession)(nil)).Where("expires_at < ?", now.UTC()).Exec(ctx)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}
