package scanner

import (
	"database/sql"
	"encoding/json"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/lib/pq"
)

// ScanLedgerEntry scanne une ligne SQL vers un LedgerEntry.
// Utilise les types sql.Null* et les convertit automatiquement.
func ScanLedgerEntry(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var ticketID sql.NullInt64
	var details []byte

	err := scanner.Scan(
		&entry.ID, &entry.UserID, &entry.Username, &entry.EventType,
		&entry.PointsAwarded, &ticketID, &details, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.RelatedTicketID = utils.NullInt64ToPointer(ticketID)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return nil, err
		}
	}

	return &entry, nil
}

// ScanBadge scanne une ligne SQL vers un Badge.
func ScanBadge(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Badge, error) {
	var b model.Badge
	var metadata []byte

	err := scanner.Scan(
		&b.ID, &b.UserID, &b.Username, &b.BadgeID,
		&b.AchievedAt, &b.ResetPeriod, &b.IsActive, &metadata,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &b.Metadata); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

// ScanTicket scanne une ligne SQL vers la référence Ticket (lecture seule).
func ScanTicket(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Ticket, error) {
	var t model.Ticket
	var assignedTo, assignedToName sql.NullString
	var lastAssignedAt, completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.Subject, &t.Priority, &t.CreatedBy, &t.CreatedAt,
		&assignedTo, &assignedToName, &lastAssignedAt, &t.IsReopened, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.AssignedTo = utils.NullStringToPointer(assignedTo)
	t.AssignedToName = utils.NullStringToString(assignedToName)
	t.LastAssignedAt = utils.NullTimeToPointer(lastAssignedAt)
	t.CompletedAt = utils.NullTimeToPointer(completedAt)

	return &t, nil
}

// ScanMilestoneNotification scanne une ligne SQL vers une MilestoneNotification.
func ScanMilestoneNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.MilestoneNotification, error) {
	var n model.MilestoneNotification

	err := scanner.Scan(
		&n.ID, &n.UserID, &n.Username, &n.Threshold,
		&n.Message, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// ScanBadgeNotification scanne une ligne SQL vers une BadgeNotification,
// avec pq.Array pour la colonne recipients (text[]).
func ScanBadgeNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.BadgeNotification, error) {
	var n model.BadgeNotification
	var userID sql.NullString

	err := scanner.Scan(
		&n.ID, &userID, &n.Username, &n.BadgeID,
		&n.Message, pq.Array(&n.Recipients), &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.UserID = utils.NullStringToPointer(userID)

	return &n, nil
}
