package scoring

import (
	"context"
	"testing"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketOpenedPriorityPoints(t *testing.T) {
	cases := []struct {
		priority string
		want     int
	}{
		{"Low", 9},
		{"Medium", 10},
		{"High", 10},
		{"Urgent", 10},
	}

	for i, c := range cases {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		f.addTicket(&model.Ticket{ID: i + 1, Subject: "Sujet unique", Priority: c.priority, CreatedBy: "u1", CreatedAt: baseNow})

		res := award(t, e, ticketReq(model.EventTicketOpened, "u1", "alice", i+1))
		assert.Equal(t, c.want, res.PointsAwarded, "priority %s", c.priority)
	}
}

func TestTicketOpenedDuplicateSubject(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow.Add(-1 * time.Hour)})
	f.addTicket(&model.Ticket{ID: 2, Subject: "server is down ", Priority: "High", CreatedBy: "u2", CreatedAt: baseNow})

	res := award(t, e, ticketReq(model.EventTicketOpened, "u2", "bob", 2))
	assert.Equal(t, 0, res.PointsAwarded)

	// L'entrée à 0 point est insérée quand même, avec le flag de détection
	entries := f.entriesByType(model.EventTicketOpened)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].PointsAwarded)
	assert.Equal(t, true, entries[0].Details["duplicate_detection"])
	assert.Equal(t, 1, entries[0].Details["similar_ticket_id"])
}

func TestTicketOpenedOldSubjectIgnored(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	// Même sujet, mais hors de la fenêtre de 48h
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow.Add(-72 * time.Hour)})
	f.addTicket(&model.Ticket{ID: 2, Subject: "Server is down", Priority: "High", CreatedBy: "u2", CreatedAt: baseNow})

	res := award(t, e, ticketReq(model.EventTicketOpened, "u2", "bob", 2))
	assert.Equal(t, 10, res.PointsAwarded)
}

func TestTicketClosedByCreator(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-2 * time.Hour)})

	res := award(t, e, ticketReq(model.EventTicketClosed, "u1", "alice", 1))
	assert.Equal(t, 6, res.PointsAwarded)
	assert.Empty(t, f.entriesByType(model.EventTicketClosedAssist))
}

func TestTicketClosedSplitWithCreator(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-2 * time.Hour)})
	f.usernames["u1"] = "alice"

	res := award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))
	assert.Equal(t, 4, res.PointsAwarded)

	// Le créateur reçoit sa part en écriture secondaire : le total vaut une clôture en solo
	assists := f.entriesByType(model.EventTicketClosedAssist)
	require.Len(t, assists, 1)
	assert.Equal(t, "u1", assists[0].UserID)
	assert.Equal(t, 2, assists[0].PointsAwarded)
	assert.Equal(t, 6, f.userNet("u1")+f.userNet("u2"))
}

func TestTicketClosedDuplicateFlaggedNoPoints(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow.Add(-1 * time.Hour)})
	ticketID := 1
	f.addEntry(model.LedgerEntry{
		UserID: "u1", Username: "alice",
		EventType:       model.EventTicketOpened,
		PointsAwarded:   0,
		RelatedTicketID: &ticketID,
		Details:         map[string]interface{}{"duplicate_detection": true},
	})

	res := award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))
	assert.Equal(t, 0, res.PointsAwarded)
	assert.Empty(t, f.entriesByType(model.EventTicketClosed))
	assert.Empty(t, f.entriesByType(model.EventTicketClosedAssist))
}

func TestTicketClosedSupersedesPriorClose(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-2 * time.Hour)})
	f.usernames["u1"] = "alice"

	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))
	f.now = f.now.Add(time.Minute)
	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))

	// Sans réouverture entre les deux, la clôture intermédiaire est supprimée
	closes := f.entriesByType(model.EventTicketClosed)
	require.Len(t, closes, 1)
	assert.Equal(t, "u2", closes[0].UserID)
	assert.Equal(t, 4, closes[0].PointsAwarded)
}

func TestCloseReopenCloseIsIdempotent(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	ticket := &model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-2 * time.Hour)}
	f.addTicket(ticket)
	f.usernames["u1"] = "alice"

	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))

	f.now = f.now.Add(10 * time.Minute)
	res := award(t, e, ticketReq(model.EventTicketReopened, "u1", "alice", 1))
	assert.Equal(t, 0, res.PointsAwarded)
	ticket.IsReopened = true

	// Les reversals annulent exactement la clôture et l'assist
	assert.Equal(t, 0, f.userNet("u1"))
	assert.Equal(t, 0, f.userNet("u2"))

	f.now = f.now.Add(10 * time.Minute)
	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))

	// Le cycle close → reopen → close vaut exactement une clôture
	assert.Equal(t, 2, f.userNet("u1"))
	assert.Equal(t, 4, f.userNet("u2"))

	// Après réouverture, les clôtures annulées restent en place
	assert.Len(t, f.entriesByType(model.EventTicketClosed), 2)
}

func TestReopenInsertsMarkerEntry(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-2 * time.Hour)})

	// Réouverture sans clôture préalable : aucun reversal, mais l'entrée
	// marqueur à 0 point est tout de même insérée
	award(t, e, ticketReq(model.EventTicketReopened, "u1", "alice", 1))

	reopens := f.entriesByType(model.EventTicketReopened)
	require.Len(t, reopens, 1)
	assert.Equal(t, 0, reopens[0].PointsAwarded)
	assert.Equal(t, "u1", reopens[0].UserID)
}

func TestTicketDeletedReversesAllNets(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow})
	f.usernames["u1"] = "alice"

	award(t, e, ticketReq(model.EventTicketOpened, "u1", "alice", 1))
	f.now = f.now.Add(time.Hour)
	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))

	f.now = f.now.Add(time.Hour)
	res := award(t, e, ticketReq(model.EventTicketDeleted, "u2", "bob", 1))

	// Le net du supprimeur est son résultat primaire, les autres en reversals
	assert.Equal(t, -4, res.PointsAwarded)
	assert.Equal(t, 0, f.userNet("u1"))
	assert.Equal(t, 0, f.userNet("u2"))
}

func TestTicketDeletedZeroNetLeavesMarker(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow.Add(-time.Hour)})
	f.addTicket(&model.Ticket{ID: 2, Subject: "server is down ", Priority: "High", CreatedBy: "u2", CreatedAt: baseNow})

	// Ouverture flaggée doublon : 0 point, net nul sur le ticket
	res := award(t, e, ticketReq(model.EventTicketOpened, "u2", "bob", 2))
	require.Equal(t, 0, res.PointsAwarded)
	f.now = f.now.Add(time.Minute)

	res = award(t, e, ticketReq(model.EventTicketDeleted, "u2", "bob", 2))
	assert.Equal(t, 0, res.PointsAwarded)

	// Même sans points à annuler, la suppression laisse sa trace
	deletions := f.entriesByType(model.EventTicketDeleted)
	require.Len(t, deletions, 1)
	assert.Equal(t, 0, deletions[0].PointsAwarded)
	require.NotNil(t, deletions[0].RelatedTicketID)
	assert.Equal(t, 2, *deletions[0].RelatedTicketID)
}

func TestTicketDeletedByUninvolvedUser(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.addTicket(&model.Ticket{ID: 1, Subject: "Server is down", Priority: "High", CreatedBy: "u1", CreatedAt: baseNow})
	f.usernames["u1"] = "alice"

	award(t, e, ticketReq(model.EventTicketOpened, "u1", "alice", 1))
	f.now = f.now.Add(time.Hour)
	award(t, e, ticketReq(model.EventTicketClosed, "u2", "bob", 1))

	f.now = f.now.Add(time.Hour)
	res := award(t, e, ticketReq(model.EventTicketDeleted, "u3", "carol", 1))

	assert.Equal(t, 0, res.PointsAwarded)
	assert.Equal(t, 0, f.userNet("u1"))
	assert.Equal(t, 0, f.userNet("u2"))
	assert.Equal(t, 0, f.userNet("u3"))
}

func TestAssignToSelf(t *testing.T) {
	t.Run("own unassigned ticket", func(t *testing.T) {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-3 * time.Hour)})

		res := award(t, e, ticketReq(model.EventAssignToSelf, "u1", "alice", 1))
		assert.Equal(t, 0, res.PointsAwarded)
	})

	t.Run("stale ticket claimed", func(t *testing.T) {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-3 * time.Hour)})

		res := award(t, e, ticketReq(model.EventAssignToSelf, "u2", "bob", 1))
		assert.Equal(t, 6, res.PointsAwarded)
	})

	t.Run("too soon", func(t *testing.T) {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-time.Hour)})

		res := award(t, e, ticketReq(model.EventAssignToSelf, "u2", "bob", 1))
		assert.Equal(t, 0, res.PointsAwarded)
	})

	t.Run("reference is last assignment", func(t *testing.T) {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		lastAssigned := baseNow.Add(-time.Hour)
		f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-5 * time.Hour), LastAssignedAt: &lastAssigned})

		// Créé il y a 5h mais réassigné il y a 1h : trop tôt
		res := award(t, e, ticketReq(model.EventAssignToSelf, "u2", "bob", 1))
		assert.Equal(t, 0, res.PointsAwarded)
	})

	t.Run("reclaim by same user", func(t *testing.T) {
		f := newFakeStore(baseNow)
		e := newTestEngine(f)
		f.addTicket(&model.Ticket{ID: 1, Subject: "VPN issue", Priority: "Medium", CreatedBy: "u1", CreatedAt: baseNow.Add(-3 * time.Hour)})

		first := award(t, e, ticketReq(model.EventAssignToSelf, "u2", "bob", 1))
		assert.Equal(t, 6, first.PointsAwarded)

		f.now = f.now.Add(3 * time.Hour)
		second := award(t, e, ticketReq(model.EventAssignToSelf, "u2", "bob", 1))
		assert.Equal(t, 0, second.PointsAwarded)
	})
}

func TestNotesDecreasingScale(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)

	want := []int{4, 3, 2, 2}
	for _, pts := range want {
		res := award(t, e, ticketReq(model.EventNoteAdded, "u1", "alice", 1))
		assert.Equal(t, pts, res.PointsAwarded)
		f.now = f.now.Add(time.Minute)
	}

	// Le barème est par utilisateur : la première note d'un autre agent vaut 4
	res := award(t, e, ticketReq(model.EventNoteAdded, "u2", "bob", 1))
	assert.Equal(t, 4, res.PointsAwarded)

	// Le barème est par ticket : repartir de 4 sur un autre ticket
	res = award(t, e, ticketReq(model.EventNoteAdded, "u1", "alice", 2))
	assert.Equal(t, 4, res.PointsAwarded)
}

func TestNoteDeleted(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)

	award(t, e, ticketReq(model.EventNoteAdded, "u1", "alice", 1))
	f.now = f.now.Add(time.Minute)

	// Toujours -4, quel que soit le rang de la note supprimée
	res := award(t, e, ticketReq(model.EventNoteDeleted, "u1", "alice", 1))
	assert.Equal(t, -4, res.PointsAwarded)
}

func shiftReq(userID, username, timestamp string) *model.AwardRequest {
	return &model.AwardRequest{
		EventType: model.EventShiftStarted,
		UserID:    userID,
		Username:  username,
		Data:      map[string]interface{}{"timestamp": timestamp},
	}
}

func TestShiftStarted(t *testing.T) {
	// Horaire prévu : 12h00 heure métier le mercredi.
	// Les timestamps sont en UTC, l'heure métier est UTC+2.
	cases := []struct {
		name      string
		timestamp string
		want      int
	}{
		{"on time exactly", "2026-03-04T10:00:00Z", 10},
		{"early within window", "2026-03-04T09:35:00Z", 10},
		{"end of grace", "2026-03-04T10:10:00Z", 10},
		{"late below threshold", "2026-03-04T10:12:00Z", 1},
		{"late at threshold", "2026-03-04T10:15:00Z", -20},
		{"very late", "2026-03-04T11:30:00Z", -20},
		{"too early", "2026-03-04T09:15:00Z", 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFakeStore(baseNow)
			e := newTestEngine(f)
			f.weekly["u1"] = map[time.Weekday]string{time.Wednesday: "12:00"}

			res := award(t, e, shiftReq("u1", "alice", c.timestamp))
			assert.Equal(t, c.want, res.PointsAwarded)
		})
	}
}

func TestShiftStartedNoSchedule(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)

	res := award(t, e, shiftReq("u1", "alice", "2026-03-04T10:00:00Z"))
	assert.Equal(t, 1, res.PointsAwarded)

	entries := f.entriesByType(model.EventShiftStarted)
	require.Len(t, entries, 1)
	assert.Equal(t, "No schedule found", entries[0].Details["status"])
}

func TestShiftStartedOverrideBeatsWeekly(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)
	f.weekly["u1"] = map[time.Weekday]string{time.Wednesday: "12:00"}
	f.overrides["u1"] = map[string]string{"2026-03-04": "14:00"}

	// 14h05 heure métier : à l'heure sur l'override, très en retard sur l'hebdo
	res := award(t, e, shiftReq("u1", "alice", "2026-03-04T12:05:00Z"))
	assert.Equal(t, 10, res.PointsAwarded)
}

func TestBreakExceeded(t *testing.T) {
	cases := []struct {
		name     string
		expected int
		actual   int
		want     int
	}{
		{"within tolerance", 15, 24, 0},
		{"at threshold", 15, 25, -20},
		{"well over", 15, 40, -20},
		{"shorter than expected", 15, 10, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFakeStore(baseNow)
			e := newTestEngine(f)

			res := award(t, e, &model.AwardRequest{
				EventType: model.EventBreakExceeded,
				UserID:    "u1",
				Username:  "alice",
				Data: map[string]interface{}{
					"expectedDuration": float64(c.expected),
					"actualDuration":   float64(c.actual),
				},
			})
			assert.Equal(t, c.want, res.PointsAwarded)
		})
	}
}

func TestBreakExceededMissingDurations(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)

	_, err := e.Award(context.Background(), &model.AwardRequest{
		EventType: model.EventBreakExceeded,
		UserID:    "u1",
		Username:  "alice",
	})
	assert.Error(t, err)
}

func TestScheduleItemAdded(t *testing.T) {
	f := newFakeStore(baseNow)
	e := newTestEngine(f)

	res := award(t, e, &model.AwardRequest{
		EventType: model.EventScheduleItemAdded,
		UserID:    "u1",
		Username:  "alice",
	})
	assert.Equal(t, 2, res.PointsAwarded)
}
