package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/bpal-app/bpal-backend/internal/logger"
	model "github.com/bpal-app/bpal-backend/internal/models"
)

// Barème des règles. Les seuils configurables (similarité, fenêtres, fuseau)
// vivent dans Params ; les valeurs de points sont le contrat métier lui-même.
const (
	pointsOpenFlat   = 1
	pointsOpenLow    = 8
	pointsOpenHigher = 9

	pointsCloseSelf   = 6
	pointsCloseCloser = 4
	pointsCloseAssist = 2

	pointsSelfAssign = 6

	pointsNoteFirst   = 4
	pointsNoteSecond  = 3
	pointsNoteLater   = 2
	pointsNoteDeleted = -4

	pointsShiftOnTime   = 10
	pointsShiftBaseline = 1
	pointsShiftLate     = -20

	pointsBreakExceeded = -20
	pointsScheduleItem  = 2

	pointsMilestoneBonus = 20
	pointsBadgeEarned    = 10
	pointsPerfectDay     = 50
)

const (
	selfAssignMinAge      = 2 * time.Hour
	shiftEarlyWindow      = 30 * time.Minute
	shiftGraceWindow      = 10 * time.Minute
	shiftLateThreshold    = 15 * time.Minute
	breakOverageThreshold = 10 // minutes
)

// evaluate dispatche l'événement vers sa règle. Chaque règle est une fonction
// pure du payload et de l'état lu via le Store ; les effets de bord passent
// exclusivement par l'outcome (insertion primaire + sideEntries).
func (e *Engine) evaluate(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	switch req.EventType {
	case model.EventTicketOpened:
		return e.ruleTicketOpened(ctx, s, req)
	case model.EventTicketClosed:
		return e.ruleTicketClosed(ctx, s, req)
	case model.EventTicketReopened:
		return e.ruleTicketReopened(ctx, s, req)
	case model.EventTicketDeleted:
		return e.ruleTicketDeleted(ctx, s, req)
	case model.EventAssignToSelf:
		return e.ruleAssignToSelf(ctx, s, req)
	case model.EventNoteAdded:
		return e.ruleNoteAdded(ctx, s, req)
	case model.EventNoteDeleted:
		return e.ruleNoteDeleted(ctx, s, req)
	case model.EventShiftStarted:
		return e.ruleShiftStarted(ctx, s, req)
	case model.EventBreakExceeded:
		return e.ruleBreakExceeded(req)
	case model.EventScheduleItemAdded:
		return e.ruleScheduleItemAdded(req)
	default:
		return nil, fmt.Errorf("unknown event type: %s", req.EventType)
	}
}

func requireTicket(ctx context.Context, s Store, req *model.AwardRequest) (*model.Ticket, error) {
	id := payloadTicketID(req.Data)
	if id == nil {
		return nil, fmt.Errorf("%s requires a ticketId", req.EventType)
	}
	t, err := s.GetTicket(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("ticket lookup failed: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("ticket %d not found", *id)
	}
	return t, nil
}

func priorityPoints(priority string) int {
	switch priority {
	case "Low":
		return pointsOpenLow
	case "Medium", "High", "Urgent":
		return pointsOpenHigher
	default:
		return 0
	}
}

// ruleTicketOpened attribue les points d'ouverture, sauf si le sujet est un
// quasi-doublon d'un ticket récent : l'entrée est alors insérée à 0 point avec
// le flag duplicate_detection (la règle de clôture s'en sert ensuite).
func (e *Engine) ruleTicketOpened(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	t, err := requireTicket(ctx, s, req)
	if err != nil {
		return nil, err
	}

	since := e.now().Add(-e.params.DuplicateWindow)
	subjects, err := s.RecentTicketSubjects(ctx, since, t.ID)
	if err != nil {
		return nil, fmt.Errorf("recent subjects lookup failed: %w", err)
	}

	// Premier match au-dessus du seuil gagne, l'ordre vient de la requête.
	for _, sub := range subjects {
		sim := Similarity(t.Subject, sub.Subject)
		if sim >= e.params.SimilarityThreshold {
			logger.Warning("duplicate subject detected: ticket %d ~ ticket %d (%.2f)", t.ID, sub.ID, sim)
			return &outcome{
				points:      0,
				reason:      "Duplicate ticket detected",
				ticketID:    &t.ID,
				forceInsert: true,
				details: map[string]interface{}{
					"reason":              "Duplicate ticket detected",
					"duplicate_detection": true,
					"similar_ticket_id":   sub.ID,
					"similarity":          sim,
				},
				checkMilestone: true,
			}, nil
		}
	}

	pts := priorityPoints(t.Priority) + pointsOpenFlat
	return &outcome{
		points:   pts,
		reason:   "Ticket opened",
		ticketID: &t.ID,
		details: map[string]interface{}{
			"reason":   "Ticket opened",
			"priority": t.Priority,
		},
		checkMilestone: true,
	}, nil
}

// ruleTicketClosed attribue les points de clôture. Une clôture par un tiers se
// partage 4/2 avec le créateur ; une clôture intermédiaire non suivie de
// réouverture est physiquement supprimée avant la nouvelle attribution.
func (e *Engine) ruleTicketClosed(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	t, err := requireTicket(ctx, s, req)
	if err != nil {
		return nil, err
	}

	creation, err := s.TicketCreationEntry(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("creation entry lookup failed: %w", err)
	}
	if creation != nil {
		if flagged, _ := creation.Details["duplicate_detection"].(bool); flagged {
			return &outcome{
				points:   0,
				reason:   "No points - ticket was flagged as duplicate",
				ticketID: &t.ID,
			}, nil
		}
	}

	// Clôtures intermédiaires du même utilisateur : supprimées seulement si le
	// ticket n'a jamais été réouvert. Après une réouverture, elles ont déjà été
	// annulées par des reversals et doivent rester en place.
	if !t.IsReopened {
		if err := s.DeleteCloseEntries(ctx, t.ID, req.UserID); err != nil {
			return nil, fmt.Errorf("superseded close cleanup failed: %w", err)
		}
	}

	if t.CreatedBy == req.UserID {
		return &outcome{
			points:   pointsCloseSelf,
			reason:   "Ticket closed",
			ticketID: &t.ID,
			details: map[string]interface{}{
				"reason": "Ticket closed",
			},
		}, nil
	}

	// Clôture par un tiers : 4 points pour lui, 2 pour le créateur en best-effort.
	creatorName, err := s.Username(ctx, t.CreatedBy)
	if err != nil {
		logger.Warning("creator username lookup failed for %s: %v", t.CreatedBy, err)
		creatorName = t.CreatedBy
	}
	assist := &model.LedgerEntry{
		UserID:          t.CreatedBy,
		Username:        creatorName,
		EventType:       model.EventTicketClosedAssist,
		PointsAwarded:   pointsCloseAssist,
		RelatedTicketID: &t.ID,
		Details: map[string]interface{}{
			"reason":    "Your ticket was closed",
			"closed_by": req.Username,
		},
		CreatedAt: e.now(),
	}

	return &outcome{
		points:   pointsCloseCloser,
		reason:   "Ticket closed",
		ticketID: &t.ID,
		details: map[string]interface{}{
			"reason":     "Ticket closed",
			"created_by": t.CreatedBy,
		},
		sideEntries: []*model.LedgerEntry{assist},
	}, nil
}

// ruleTicketReopened annule les dernières clôtures (closer et assist) par des
// reversals de magnitude opposée. La réouverture elle-même ne vaut aucun point.
func (e *Engine) ruleTicketReopened(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	t, err := requireTicket(ctx, s, req)
	if err != nil {
		return nil, err
	}

	closeEntries, err := s.LatestCloseEntries(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("close entries lookup failed: %w", err)
	}

	var reversals []*model.LedgerEntry
	for _, ce := range closeEntries {
		reversals = append(reversals, &model.LedgerEntry{
			UserID:          ce.UserID,
			Username:        ce.Username,
			EventType:       model.EventTicketReopened,
			PointsAwarded:   -ce.PointsAwarded,
			RelatedTicketID: &t.ID,
			Details: map[string]interface{}{
				"reason":         "Points reversed - ticket reopened",
				"reversal":       true,
				"reversed_event": ce.EventType,
			},
			CreatedAt: e.now(),
		})
	}

	return &outcome{
		points:      0,
		reason:      "Ticket reopened",
		ticketID:    &t.ID,
		forceInsert: true,
		details: map[string]interface{}{
			"reason":    "Ticket reopened",
			"reversals": len(reversals),
		},
		sideEntries: reversals,
	}, nil
}

// ruleTicketDeleted annule le total net de chaque utilisateur sur le ticket.
// La paire du supprimeur est extraite de la liste et devient le résultat
// primaire : l'exclusion mutuelle avec l'insertion générique est structurelle,
// pas une convention entre deux bouts de code. L'entrée TICKET_DELETED est
// toujours écrite, même à zéro point (ticket flaggé doublon) : l'exclusion des
// paliers repose sur sa présence dans le ledger.
func (e *Engine) ruleTicketDeleted(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	id := payloadTicketID(req.Data)
	if id == nil {
		return nil, fmt.Errorf("%s requires a ticketId", req.EventType)
	}

	entries, err := s.EntriesForTicket(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("ticket entries lookup failed: %w", err)
	}

	type netTotal struct {
		username string
		total    int
	}
	order := []string{}
	nets := map[string]*netTotal{}
	for _, entry := range entries {
		nt, ok := nets[entry.UserID]
		if !ok {
			nt = &netTotal{username: entry.Username}
			nets[entry.UserID] = nt
			order = append(order, entry.UserID)
		}
		nt.total += entry.PointsAwarded
	}

	deleterPoints := 0
	var reversals []*model.LedgerEntry
	for _, userID := range order {
		nt := nets[userID]
		if nt.total == 0 {
			continue
		}
		if userID == req.UserID {
			deleterPoints = -nt.total
			continue
		}
		reversals = append(reversals, &model.LedgerEntry{
			UserID:          userID,
			Username:        nt.username,
			EventType:       model.EventTicketDeleted,
			PointsAwarded:   -nt.total,
			RelatedTicketID: id,
			Details: map[string]interface{}{
				"reason":   "Points reversed - ticket deleted",
				"reversal": true,
			},
			CreatedAt: e.now(),
		})
	}

	return &outcome{
		points:      deleterPoints,
		reason:      "Ticket deleted - points reversed",
		ticketID:    id,
		forceInsert: true,
		details: map[string]interface{}{
			"reason":   "Points reversed - ticket deleted",
			"reversal": true,
		},
		sideEntries: reversals,
	}, nil
}

// ruleAssignToSelf : 6 points seulement si le ticket traîne depuis plus de 2h
// (depuis la dernière assignation, ou la création s'il n'a jamais été assigné).
// Auto-réclamer son propre ticket vierge ou re-réclamer après soi ne vaut rien.
func (e *Engine) ruleAssignToSelf(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	t, err := requireTicket(ctx, s, req)
	if err != nil {
		return nil, err
	}

	if t.CreatedBy == req.UserID && t.AssignedTo == nil && t.LastAssignedAt == nil {
		return &outcome{
			points:   0,
			reason:   "No points - own unassigned ticket",
			ticketID: &t.ID,
		}, nil
	}

	last, err := s.LastSelfAssign(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("last self-assign lookup failed: %w", err)
	}
	if last != nil && last.UserID == req.UserID {
		return &outcome{
			points:   0,
			reason:   "No points - ticket already claimed by you",
			ticketID: &t.ID,
		}, nil
	}

	reference := t.CreatedAt
	if t.LastAssignedAt != nil {
		reference = *t.LastAssignedAt
	}
	if e.now().Sub(reference) <= selfAssignMinAge {
		return &outcome{
			points:   0,
			reason:   "No points - too soon",
			ticketID: &t.ID,
		}, nil
	}

	return &outcome{
		points:   pointsSelfAssign,
		reason:   "Ticket self-assigned",
		ticketID: &t.ID,
		details: map[string]interface{}{
			"reason": "Ticket self-assigned",
		},
		checkMilestone: true,
	}, nil
}

// ruleNoteAdded : barème dégressif par ticket et par utilisateur (4, 3, puis 2).
func (e *Engine) ruleNoteAdded(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	id := payloadTicketID(req.Data)
	if id == nil {
		return nil, fmt.Errorf("%s requires a ticketId", req.EventType)
	}

	count, err := s.CountUserNotes(ctx, *id, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("note count lookup failed: %w", err)
	}

	pts := pointsNoteLater
	switch count {
	case 0:
		pts = pointsNoteFirst
	case 1:
		pts = pointsNoteSecond
	}

	return &outcome{
		points:   pts,
		reason:   "Note added",
		ticketID: id,
		details: map[string]interface{}{
			"reason":      "Note added",
			"note_number": count + 1,
		},
	}, nil
}

// ruleNoteDeleted : toujours -4, quel que soit le rang de la note supprimée.
func (e *Engine) ruleNoteDeleted(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	id := payloadTicketID(req.Data)
	if id == nil {
		return nil, fmt.Errorf("%s requires a ticketId", req.EventType)
	}

	return &outcome{
		points:   pointsNoteDeleted,
		reason:   "Note deleted",
		ticketID: id,
		details: map[string]interface{}{
			"reason": "Note deleted",
		},
	}, nil
}

// ruleShiftStarted compare l'heure réelle de prise de poste à l'horaire prévu
// (override du jour, sinon défaut hebdomadaire), en heure métier.
// Fenêtre à l'heure [-30min, +10min] → +10 ; ≥15min de retard → -20 ; sinon +1.
func (e *Engine) ruleShiftStarted(ctx context.Context, s Store, req *model.AwardRequest) (*outcome, error) {
	actual, ok := payloadTime(req.Data, "timestamp")
	if !ok {
		actual = e.now()
	}
	bt := e.params.businessTime(actual)

	sched, err := s.ScheduleOverride(ctx, req.UserID, bt)
	if err != nil {
		return nil, fmt.Errorf("schedule override lookup failed: %w", err)
	}
	if sched == nil {
		sched, err = s.WeekdaySchedule(ctx, req.UserID, bt.Weekday())
		if err != nil {
			return nil, fmt.Errorf("weekday schedule lookup failed: %w", err)
		}
	}
	if sched == nil {
		return &outcome{
			points: pointsShiftBaseline,
			reason: "Shift started",
			details: map[string]interface{}{
				"reason": "Shift started",
				"status": "No schedule found",
			},
		}, nil
	}

	start, err := time.Parse("15:04", sched.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule start time %q: %w", sched.StartTime, err)
	}
	scheduledAt := time.Date(bt.Year(), bt.Month(), bt.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
	delta := bt.Sub(scheduledAt)

	pts := pointsShiftBaseline
	status := "Shift started"
	switch {
	case delta >= -shiftEarlyWindow && delta <= shiftGraceWindow:
		pts = pointsShiftOnTime
		status = "On time"
	case delta >= shiftLateThreshold:
		pts = pointsShiftLate
		status = "Late"
	}

	return &outcome{
		points: pts,
		reason: status,
		details: map[string]interface{}{
			"reason":          status,
			"scheduled_start": sched.StartTime,
			"delta_minutes":   int(delta.Minutes()),
		},
	}, nil
}

// ruleBreakExceeded ne pénalise que les dépassements d'au moins 10 minutes
// au-delà de la durée choisie au début de la pause.
func (e *Engine) ruleBreakExceeded(req *model.AwardRequest) (*outcome, error) {
	expected, okExp := payloadInt(req.Data, "expectedDuration")
	actual, okAct := payloadInt(req.Data, "actualDuration")
	if !okExp || !okAct {
		return nil, fmt.Errorf("%s requires expectedDuration and actualDuration", req.EventType)
	}

	overage := actual - expected
	if overage < breakOverageThreshold {
		return &outcome{
			points: 0,
			reason: "Break within tolerance",
			details: map[string]interface{}{
				"reason":          "Break within tolerance",
				"overage_minutes": overage,
			},
		}, nil
	}

	return &outcome{
		points: pointsBreakExceeded,
		reason: "Break exceeded",
		details: map[string]interface{}{
			"reason":          "Break exceeded",
			"overage_minutes": overage,
		},
	}, nil
}

func (e *Engine) ruleScheduleItemAdded(req *model.AwardRequest) (*outcome, error) {
	return &outcome{
		points: pointsScheduleItem,
		reason: "Schedule item added",
		details: map[string]interface{}{
			"reason": "Schedule item added",
		},
	}, nil
}
