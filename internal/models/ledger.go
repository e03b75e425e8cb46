package model

import (
	"time"
)

// Types d'événements scorés par le moteur de points.
// Les valeurs sont celles envoyées par les modules clients (tickets, planning, statut).
const (
	EventTicketOpened       = "TICKET_OPENED"
	EventTicketClosed       = "TICKET_CLOSED"
	EventTicketClosedAssist = "TICKET_CLOSED_ASSIST"
	EventTicketReopened     = "TICKET_REOPENED"
	EventTicketDeleted      = "TICKET_DELETED"
	EventAssignToSelf       = "ASSIGN_TO_SELF"
	EventNoteAdded          = "NOTE_ADDED"
	EventNoteDeleted        = "NOTE_DELETED"
	EventShiftStarted       = "SHIFT_STARTED"
	EventBreakExceeded      = "BREAK_EXCEEDED"
	EventScheduleItemAdded  = "SCHEDULE_ITEM_ADDED"
	EventMilestoneBonus     = "MILESTONE_BONUS"
	EventBadgeEarned        = "BADGE_EARNED"
	EventPerfectDay         = "PERFECT_DAY"

	// EventClientHeroCheck déclenche le cycle quotidien des badges (cron),
	// il ne produit jamais d'écriture directe dans le ledger.
	EventClientHeroCheck = "CLIENT_HERO_CHECK"
)

// LedgerEntry représente une transaction de points atomique et immuable.
// Les corrections se font par insertion d'une entrée inverse (reversal),
// jamais par mise à jour.
type LedgerEntry struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId"`
	Username        string                 `json:"username"`
	EventType       string                 `json:"eventType"`
	PointsAwarded   int                    `json:"pointsAwarded"`
	RelatedTicketID *int                   `json:"relatedTicketId,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// UserTotal agrège les points d'un utilisateur sur une période.
type UserTotal struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Total    int    `json:"total"`
}
