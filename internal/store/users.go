package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Username renvoie le nom d'affichage d'un utilisateur (copie dénormalisée
// dans chaque entrée du ledger).
func (p *Postgres) Username(ctx context.Context, userID string) (string, error) {
	var name string
	err := p.db.QueryRow(ctx, `
		SELECT name FROM users WHERE id = $1 AND deleted_at IS NULL
	`, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("user %s not found", userID)
	}
	return name, err
}
