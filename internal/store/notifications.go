package store

import (
	"context"
	"fmt"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/google/uuid"
)

// InsertMilestoneNotification écrit la notification de palier (une seule par
// attribution, le flag is_read appartient à la couche UI).
func (p *Postgres) InsertMilestoneNotification(ctx context.Context, n *model.MilestoneNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.Exec(ctx, `
		INSERT INTO milestone_notifications (id, user_id, username, threshold, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
	`, n.ID, n.UserID, n.Username, n.Threshold, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert milestone notification: %w", err)
	}
	return nil
}

// BroadcastBadgeNotification diffuse une notification de badge à tous les
// utilisateurs actifs : la liste des destinataires est figée à l'insertion.
func (p *Postgres) BroadcastBadgeNotification(ctx context.Context, n *model.BadgeNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.Exec(ctx, `
		INSERT INTO badge_notifications (id, user_id, username, badge_id, message, recipients, is_read, created_at)
		VALUES ($1, NULL, $2, $3, $4,
			(SELECT COALESCE(array_agg(id), '{}') FROM users WHERE deleted_at IS NULL),
			false, $5)
	`, n.ID, n.Username, n.BadgeID, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not broadcast badge notification: %w", err)
	}
	return nil
}

// AcquireCycleLock prend un verrou advisory de transaction lié à la date cible
// du cycle quotidien (libéré au commit/rollback).
func (p *Postgres) AcquireCycleLock(ctx context.Context, target time.Time) error {
	key := target.UTC().Unix() / 86400
	_, err := p.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key)
	return err
}
