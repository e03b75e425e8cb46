package scoring

import (
	"context"
	"fmt"

	"github.com/bpal-app/bpal-backend/internal/logger"
	model "github.com/bpal-app/bpal-backend/internal/models"
)

// Paliers de tickets par jour métier. Chaque palier n'est payé qu'une fois
// par utilisateur et par jour.
var milestoneThresholds = []int{10, 15}

// checkMilestones recompte les événements qualifiants du jour métier courant
// (TICKET_OPENED plus les ASSIGN_TO_SELF qui ont réellement rapporté des points,
// hors tickets supprimés le même jour) et paie les paliers non encore payés.
// Entièrement best-effort : aucun échec ici ne remonte à l'appelant.
func (e *Engine) checkMilestones(ctx context.Context, userID, username string) {
	from, to := e.params.businessDayBounds(e.now())

	count, err := e.store.CountQualifyingEvents(ctx, userID, from, to)
	if err != nil {
		logger.Warning("milestone count failed for %s: %v", userID, err)
		return
	}

	for _, threshold := range milestoneThresholds {
		if count < threshold {
			continue
		}

		awarded, err := e.store.MilestoneAwarded(ctx, userID, threshold, from, to)
		if err != nil {
			logger.Warning("milestone guard failed for %s (threshold %d): %v", userID, threshold, err)
			continue
		}
		if awarded {
			continue
		}

		entry := &model.LedgerEntry{
			UserID:        userID,
			Username:      username,
			EventType:     model.EventMilestoneBonus,
			PointsAwarded: pointsMilestoneBonus,
			Details: map[string]interface{}{
				"reason":    fmt.Sprintf("Milestone reached: %d tickets today", threshold),
				"threshold": threshold,
			},
			CreatedAt: e.now(),
		}
		if err := e.store.InsertEntry(ctx, entry); err != nil {
			logger.Warning("milestone bonus insert failed for %s (threshold %d): %v", userID, threshold, err)
			continue
		}

		note := &model.MilestoneNotification{
			UserID:    userID,
			Username:  username,
			Threshold: threshold,
			Message:   fmt.Sprintf("%s reached %d tickets today! +%d points", username, threshold, pointsMilestoneBonus),
		}
		if err := e.store.InsertMilestoneNotification(ctx, note); err != nil {
			logger.Warning("milestone notification failed for %s: %v", userID, err)
		}

		logger.Success("milestone %d reached by %s (+%d points)", threshold, username, pointsMilestoneBonus)
	}
}
