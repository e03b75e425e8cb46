package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/google/uuid"
)

// InsertBadge insère un badge actif.
func (p *Postgres) InsertBadge(ctx context.Context, b *model.Badge) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.AchievedAt.IsZero() {
		b.AchievedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(b.Metadata)
	if err != nil {
		return fmt.Errorf("could not marshal badge metadata: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO badges (id, user_id, username, badge_id, achieved_at, reset_period, is_active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.UserID, b.Username, b.BadgeID, b.AchievedAt, b.ResetPeriod, b.IsActive, metadata)
	if err != nil {
		return fmt.Errorf("could not insert badge: %w", err)
	}
	return nil
}

// DeactivateBadge désactive toutes les instances actives d'un badge,
// tous utilisateurs confondus.
func (p *Postgres) DeactivateBadge(ctx context.Context, badgeID string) error {
	_, err := p.db.Exec(ctx, `
		UPDATE badges SET is_active = false
		WHERE badge_id = $1 AND is_active = true
	`, badgeID)
	return err
}

// DeactivateDailyBadgesExcept remet à zéro tous les badges quotidiens sauf un.
func (p *Postgres) DeactivateDailyBadgesExcept(ctx context.Context, badgeID string) error {
	_, err := p.db.Exec(ctx, `
		UPDATE badges SET is_active = false
		WHERE reset_period = $1 AND badge_id <> $2 AND is_active = true
	`, model.ResetDaily, badgeID)
	return err
}

// HasBadgeOn vérifie si l'utilisateur a décroché le badge dans la fenêtre.
func (p *Postgres) HasBadgeOn(ctx context.Context, userID, badgeID string, from, to time.Time) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM badges
			WHERE user_id = $1 AND badge_id = $2
			  AND achieved_at >= $3 AND achieved_at < $4
		)
	`, userID, badgeID, from, to).Scan(&exists)
	return exists, err
}
