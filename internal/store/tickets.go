package store

import (
	"context"
	"errors"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/scanner"
	"github.com/jackc/pgx/v5"
)

// GetTicket lit la référence ticket (entité externe, jamais modifiée ici).
func (p *Postgres) GetTicket(ctx context.Context, ticketID int) (*model.Ticket, error) {
	row := p.db.QueryRow(ctx, `
		SELECT id, subject, priority, created_by, created_at,
		       assigned_to, assigned_to_name, last_assigned_at, is_reopened, completed_at
		FROM tickets
		WHERE id = $1
	`, ticketID)

	t, err := scanner.ScanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// RecentTicketSubjects renvoie les sujets des tickets créés depuis since,
// hors le ticket en cours d'évaluation.
func (p *Postgres) RecentTicketSubjects(ctx context.Context, since time.Time, excludeTicketID int) ([]model.TicketSubject, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, subject
		FROM tickets
		WHERE created_at >= $1 AND id <> $2
		ORDER BY created_at DESC
	`, since, excludeTicketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.TicketSubject
	for rows.Next() {
		var s model.TicketSubject
		if err := rows.Scan(&s.ID, &s.Subject); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
