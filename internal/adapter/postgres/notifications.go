package postgres

import (
	"context"
	"fmt"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
)

const insertNotification = `INSERT INTO notifications (dedupe_key, user_id, compost_id, reading_id, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (dedupe_key) DO NOTHING`

// PersistNotification stores an intent. Replaying the same intent is a no-op.
func (s *Store) PersistNotification(ctx context.Context, n domain.NotificationIntent) error {
	res, err := s.db.ExecContext(ctx, insertNotification,
		n.ID, n.UserID, n.CompostID, n.ReadingID, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.logger.Debug("notification already stored", "notification_id", n.ID, "user_id", n.UserID)
	}
	return nil
}

// Deliver makes the store a notification sink.
func (s *Store) Deliver(ctx context.Context, n domain.NotificationIntent) error {
	return s.PersistNotification(ctx, n)
}

// Name labels the sink in logs and metrics.
func (s *Store) Name() string { return "postgres" }
