package scoring

import (
	"context"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
)

// Store est la capacité de persistance du moteur de points. L'implémentation
// Postgres vit dans internal/store ; les tests utilisent un fake en mémoire.
//
// Convention : les lectures unitaires renvoient (nil, nil) quand aucune ligne
// ne correspond, une erreur seulement en cas de panne.
type Store interface {
	// InTx exécute fn dans une transaction sérialisable. Les règles font des
	// séquences lecture-puis-écriture non idempotentes : sans ça, deux requêtes
	// concurrentes sur le même ticket peuvent se perdre mutuellement des mises à jour.
	InTx(ctx context.Context, fn func(Store) error) error

	// Ledger (append-only)
	InsertEntry(ctx context.Context, e *model.LedgerEntry) error
	LastEventWithin(ctx context.Context, userID, eventType string, window time.Duration) (*model.LedgerEntry, error)
	TicketCreationEntry(ctx context.Context, ticketID int) (*model.LedgerEntry, error)
	EntriesForTicket(ctx context.Context, ticketID int) ([]model.LedgerEntry, error)
	LatestCloseEntries(ctx context.Context, ticketID int) ([]model.LedgerEntry, error)
	DeleteCloseEntries(ctx context.Context, ticketID int, userID string) error
	CountUserNotes(ctx context.Context, ticketID int, userID string) (int, error)
	LastSelfAssign(ctx context.Context, ticketID int) (*model.LedgerEntry, error)
	CountQualifyingEvents(ctx context.Context, userID string, from, to time.Time) (int, error)
	MilestoneAwarded(ctx context.Context, userID string, threshold int, from, to time.Time) (bool, error)
	DailyTotals(ctx context.Context, from, to time.Time) ([]model.UserTotal, error)

	// Tickets (lecture seule, entité externe)
	GetTicket(ctx context.Context, ticketID int) (*model.Ticket, error)
	RecentTicketSubjects(ctx context.Context, since time.Time, excludeTicketID int) ([]model.TicketSubject, error)

	// Badges
	InsertBadge(ctx context.Context, b *model.Badge) error
	DeactivateBadge(ctx context.Context, badgeID string) error
	DeactivateDailyBadgesExcept(ctx context.Context, badgeID string) error
	HasBadgeOn(ctx context.Context, userID, badgeID string, from, to time.Time) (bool, error)

	// Planning
	ScheduleOverride(ctx context.Context, userID string, date time.Time) (*model.Schedule, error)
	WeekdaySchedule(ctx context.Context, userID string, weekday time.Weekday) (*model.Schedule, error)

	// Identité (affichage dénormalisé dans le ledger)
	Username(ctx context.Context, userID string) (string, error)

	// Notifications
	InsertMilestoneNotification(ctx context.Context, n *model.MilestoneNotification) error
	BroadcastBadgeNotification(ctx context.Context, n *model.BadgeNotification) error

	// AcquireCycleLock prend un verrou advisory lié à la date cible, pour que
	// deux déclenchements cron simultanés du cycle quotidien se sérialisent.
	AcquireCycleLock(ctx context.Context, target time.Time) error
}
