package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/scanner"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, user_id, username, event_type, points_awarded, related_ticket_id, details, created_at`

// InsertEntry ajoute une transaction de points au ledger (append-only).
func (p *Postgres) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("could not marshal details: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO points_ledger (id, user_id, username, event_type, points_awarded, related_ticket_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, e.Username, e.EventType, e.PointsAwarded,
		utils.IntToNullInt64(e.RelatedTicketID), details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert ledger entry: %w", err)
	}
	return nil
}

// LastEventWithin renvoie la dernière entrée (userID, eventType) de moins de
// window, ou nil si aucune.
func (p *Postgres) LastEventWithin(ctx context.Context, userID, eventType string, window time.Duration) (*model.LedgerEntry, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM points_ledger
		WHERE user_id = $1 AND event_type = $2 AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, eventType, time.Now().UTC().Add(-window))

	entry, err := scanner.ScanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// TicketCreationEntry renvoie l'entrée TICKET_OPENED d'origine du ticket.
func (p *Postgres) TicketCreationEntry(ctx context.Context, ticketID int) (*model.LedgerEntry, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM points_ledger
		WHERE related_ticket_id = $1 AND event_type = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, ticketID, model.EventTicketOpened)

	entry, err := scanner.ScanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// EntriesForTicket renvoie toutes les entrées liées au ticket, dans l'ordre.
func (p *Postgres) EntriesForTicket(ctx context.Context, ticketID int) ([]model.LedgerEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM points_ledger
		WHERE related_ticket_id = $1
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanner.ScanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// LatestCloseEntries renvoie, pour chaque (utilisateur, type), la clôture
// positive la plus récente du ticket — la cible des reversals de réouverture.
func (p *Postgres) LatestCloseEntries(ctx context.Context, ticketID int) ([]model.LedgerEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT DISTINCT ON (user_id, event_type) `+ledgerColumns+`
		FROM points_ledger
		WHERE related_ticket_id = $1
		  AND event_type IN ($2, $3)
		  AND points_awarded > 0
		ORDER BY user_id, event_type, created_at DESC
	`, ticketID, model.EventTicketClosed, model.EventTicketClosedAssist)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanner.ScanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// DeleteCloseEntries supprime physiquement les clôtures intermédiaires d'un
// utilisateur sur un ticket. Seule exception au caractère append-only du ledger.
func (p *Postgres) DeleteCloseEntries(ctx context.Context, ticketID int, userID string) error {
	_, err := p.db.Exec(ctx, `
		DELETE FROM points_ledger
		WHERE related_ticket_id = $1 AND user_id = $2 AND event_type = $3
	`, ticketID, userID, model.EventTicketClosed)
	return err
}

// CountUserNotes compte les notes déjà scorées de l'utilisateur sur le ticket.
func (p *Postgres) CountUserNotes(ctx context.Context, ticketID int, userID string) (int, error) {
	var count int
	err := p.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM points_ledger
		WHERE related_ticket_id = $1 AND user_id = $2 AND event_type = $3
	`, ticketID, userID, model.EventNoteAdded).Scan(&count)
	return count, err
}

// LastSelfAssign renvoie la dernière auto-assignation du ticket, tous
// utilisateurs confondus.
func (p *Postgres) LastSelfAssign(ctx context.Context, ticketID int) (*model.LedgerEntry, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM points_ledger
		WHERE related_ticket_id = $1 AND event_type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, ticketID, model.EventAssignToSelf)

	entry, err := scanner.ScanLedgerEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// CountQualifyingEvents compte les événements qui alimentent les paliers du
// jour : TICKET_OPENED et ASSIGN_TO_SELF rémunérés, hors tickets supprimés dans
// la même fenêtre.
func (p *Postgres) CountQualifyingEvents(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var count int
	err := p.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM points_ledger pl
		WHERE pl.user_id = $1
		  AND pl.created_at >= $2 AND pl.created_at < $3
		  AND (
		    pl.event_type = $4
		    OR (pl.event_type = $5 AND pl.points_awarded > 0)
		  )
		  AND NOT EXISTS (
		    SELECT 1 FROM points_ledger d
		    WHERE d.event_type = $6
		      AND d.related_ticket_id = pl.related_ticket_id
		      AND d.created_at >= $2 AND d.created_at < $3
		  )
	`, userID, from, to,
		model.EventTicketOpened, model.EventAssignToSelf, model.EventTicketDeleted).Scan(&count)
	return count, err
}

// MilestoneAwarded vérifie si le palier a déjà été payé dans la fenêtre,
// via la valeur threshold enregistrée dans les détails.
func (p *Postgres) MilestoneAwarded(ctx context.Context, userID string, threshold int, from, to time.Time) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM points_ledger
			WHERE user_id = $1
			  AND event_type = $2
			  AND (details->>'threshold')::int = $3
			  AND created_at >= $4 AND created_at < $5
		)
	`, userID, model.EventMilestoneBonus, threshold, from, to).Scan(&exists)
	return exists, err
}

// DailyTotals agrège les points signés par utilisateur sur la fenêtre,
// du plus haut au plus bas.
func (p *Postgres) DailyTotals(ctx context.Context, from, to time.Time) ([]model.UserTotal, error) {
	rows, err := p.db.Query(ctx, `
		SELECT user_id, MAX(username) as username, SUM(points_awarded) as total
		FROM points_ledger
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY user_id
		ORDER BY total DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []model.UserTotal
	for rows.Next() {
		var t model.UserTotal
		if err := rows.Scan(&t.UserID, &t.Username, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
