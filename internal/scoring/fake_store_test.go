package scoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
)

// fakeStore est une implémentation en mémoire de Store pour les tests de règles.
// L'horloge est pilotée par le test via le champ now, partagé avec le moteur.
type fakeStore struct {
	now time.Time

	entries        []model.LedgerEntry
	badges         []model.Badge
	tickets        map[int]*model.Ticket
	overrides      map[string]map[string]string       // userID -> "2006-01-02" -> "15:04"
	weekly         map[string]map[time.Weekday]string // userID -> weekday -> "15:04"
	usernames      map[string]string
	milestoneNotes []model.MilestoneNotification
	badgeNotes     []model.BadgeNotification

	nextID int
}

func newFakeStore(now time.Time) *fakeStore {
	return &fakeStore{
		now:       now,
		tickets:   map[int]*model.Ticket{},
		overrides: map[string]map[string]string{},
		weekly:    map[string]map[time.Weekday]string{},
		usernames: map[string]string{},
	}
}

func newTestEngine(f *fakeStore) *Engine {
	e := NewEngine(f, DefaultParams())
	e.now = func() time.Time { return f.now }
	return e
}

func (f *fakeStore) addTicket(t *model.Ticket) {
	f.tickets[t.ID] = t
}

func (f *fakeStore) addEntry(e model.LedgerEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = f.now
	}
	f.nextID++
	e.ID = fmt.Sprintf("entry-%d", f.nextID)
	f.entries = append(f.entries, e)
}

func (f *fakeStore) entriesByType(eventType string) []model.LedgerEntry {
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeStore) userNet(userID string) int {
	total := 0
	for _, e := range f.entries {
		if e.UserID == userID {
			total += e.PointsAwarded
		}
	}
	return total
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(f)
}

func (f *fakeStore) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	f.addEntry(*e)
	return nil
}

func (f *fakeStore) LastEventWithin(ctx context.Context, userID, eventType string, window time.Duration) (*model.LedgerEntry, error) {
	cutoff := f.now.Add(-window)
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if e.UserID == userID && e.EventType == eventType && !e.CreatedAt.Before(cutoff) {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TicketCreationEntry(ctx context.Context, ticketID int) (*model.LedgerEntry, error) {
	for _, e := range f.entries {
		if e.EventType == model.EventTicketOpened && e.RelatedTicketID != nil && *e.RelatedTicketID == ticketID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) EntriesForTicket(ctx context.Context, ticketID int) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.RelatedTicketID != nil && *e.RelatedTicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestCloseEntries(ctx context.Context, ticketID int) ([]model.LedgerEntry, error) {
	latest := map[string]model.LedgerEntry{}
	var order []string
	for _, e := range f.entries {
		if e.RelatedTicketID == nil || *e.RelatedTicketID != ticketID || e.PointsAwarded <= 0 {
			continue
		}
		if e.EventType != model.EventTicketClosed && e.EventType != model.EventTicketClosedAssist {
			continue
		}
		key := e.UserID + "|" + e.EventType
		if _, ok := latest[key]; !ok {
			order = append(order, key)
		}
		latest[key] = e
	}
	var out []model.LedgerEntry
	for _, key := range order {
		out = append(out, latest[key])
	}
	return out, nil
}

func (f *fakeStore) DeleteCloseEntries(ctx context.Context, ticketID int, userID string) error {
	var kept []model.LedgerEntry
	for _, e := range f.entries {
		if e.EventType == model.EventTicketClosed && e.UserID == userID &&
			e.RelatedTicketID != nil && *e.RelatedTicketID == ticketID {
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return nil
}

func (f *fakeStore) CountUserNotes(ctx context.Context, ticketID int, userID string) (int, error) {
	count := 0
	for _, e := range f.entries {
		if e.EventType == model.EventNoteAdded && e.UserID == userID &&
			e.RelatedTicketID != nil && *e.RelatedTicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LastSelfAssign(ctx context.Context, ticketID int) (*model.LedgerEntry, error) {
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if e.EventType == model.EventAssignToSelf && e.RelatedTicketID != nil && *e.RelatedTicketID == ticketID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CountQualifyingEvents(ctx context.Context, userID string, from, to time.Time) (int, error) {
	deleted := map[int]bool{}
	for _, e := range f.entries {
		if e.EventType == model.EventTicketDeleted && e.RelatedTicketID != nil &&
			!e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			deleted[*e.RelatedTicketID] = true
		}
	}

	count := 0
	for _, e := range f.entries {
		if e.UserID != userID || e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		qualifies := e.EventType == model.EventTicketOpened ||
			(e.EventType == model.EventAssignToSelf && e.PointsAwarded > 0)
		if !qualifies {
			continue
		}
		if e.RelatedTicketID != nil && deleted[*e.RelatedTicketID] {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeStore) MilestoneAwarded(ctx context.Context, userID string, threshold int, from, to time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.UserID != userID || e.EventType != model.EventMilestoneBonus {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		if th, ok := e.Details["threshold"].(int); ok && th == threshold {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DailyTotals(ctx context.Context, from, to time.Time) ([]model.UserTotal, error) {
	totals := map[string]*model.UserTotal{}
	var order []string
	for _, e := range f.entries {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		t, ok := totals[e.UserID]
		if !ok {
			t = &model.UserTotal{UserID: e.UserID, Username: e.Username}
			totals[e.UserID] = t
			order = append(order, e.UserID)
		}
		t.Total += e.PointsAwarded
	}

	var out []model.UserTotal
	for _, id := range order {
		out = append(out, *totals[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func (f *fakeStore) GetTicket(ctx context.Context, ticketID int) (*model.Ticket, error) {
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (f *fakeStore) RecentTicketSubjects(ctx context.Context, since time.Time, excludeTicketID int) ([]model.TicketSubject, error) {
	var out []model.TicketSubject
	for _, t := range f.tickets {
		if t.ID == excludeTicketID || t.CreatedAt.Before(since) {
			continue
		}
		out = append(out, model.TicketSubject{ID: t.ID, Subject: t.Subject})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertBadge(ctx context.Context, b *model.Badge) error {
	badge := *b
	if badge.AchievedAt.IsZero() {
		badge.AchievedAt = f.now
	}
	f.nextID++
	badge.ID = fmt.Sprintf("badge-%d", f.nextID)
	f.badges = append(f.badges, badge)
	return nil
}

func (f *fakeStore) DeactivateBadge(ctx context.Context, badgeID string) error {
	for i := range f.badges {
		if f.badges[i].BadgeID == badgeID {
			f.badges[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) DeactivateDailyBadgesExcept(ctx context.Context, badgeID string) error {
	for i := range f.badges {
		if f.badges[i].ResetPeriod == model.ResetDaily && f.badges[i].BadgeID != badgeID {
			f.badges[i].IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) HasBadgeOn(ctx context.Context, userID, badgeID string, from, to time.Time) (bool, error) {
	for _, b := range f.badges {
		if b.UserID == userID && b.BadgeID == badgeID &&
			!b.AchievedAt.Before(from) && b.AchievedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ScheduleOverride(ctx context.Context, userID string, date time.Time) (*model.Schedule, error) {
	byDate, ok := f.overrides[userID]
	if !ok {
		return nil, nil
	}
	start, ok := byDate[date.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	d := date
	return &model.Schedule{UserID: userID, Date: &d, StartTime: start}, nil
}

func (f *fakeStore) WeekdaySchedule(ctx context.Context, userID string, weekday time.Weekday) (*model.Schedule, error) {
	byDay, ok := f.weekly[userID]
	if !ok {
		return nil, nil
	}
	start, ok := byDay[weekday]
	if !ok {
		return nil, nil
	}
	return &model.Schedule{UserID: userID, Weekday: int(weekday), StartTime: start}, nil
}

func (f *fakeStore) Username(ctx context.Context, userID string) (string, error) {
	name, ok := f.usernames[userID]
	if !ok {
		return "", fmt.Errorf("user %s not found", userID)
	}
	return name, nil
}

func (f *fakeStore) InsertMilestoneNotification(ctx context.Context, n *model.MilestoneNotification) error {
	f.milestoneNotes = append(f.milestoneNotes, *n)
	return nil
}

func (f *fakeStore) BroadcastBadgeNotification(ctx context.Context, n *model.BadgeNotification) error {
	f.badgeNotes = append(f.badgeNotes, *n)
	return nil
}

func (f *fakeStore) AcquireCycleLock(ctx context.Context, target time.Time) error {
	return nil
}
