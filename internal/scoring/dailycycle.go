package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/bpal-app/bpal-backend/internal/logger"
	model "github.com/bpal-app/bpal-backend/internal/models"
)

// perfectDayRequired sont les badges que le vainqueur du jour doit tous détenir
// (en plus de client_hero) pour décrocher le Perfect Day ; turtle le disqualifie.
var perfectDayRequired = []string{model.BadgeSpeedDemon, model.BadgeSniper, model.BadgeLightning}

// RunDailyBadgeCycle exécute le cycle quotidien des badges. L'ordre des étapes
// est contractuel : désactivation de client_hero AVANT le calcul du nouveau
// vainqueur, remise à zéro des autres badges quotidiens APRÈS l'évaluation du
// Perfect Day. Idempotent par date cible grâce au garde de ré-attribution et au
// verrou advisory.
func (e *Engine) RunDailyBadgeCycle(ctx context.Context, now time.Time) error {
	target, ok := e.cycleTarget(now)
	if !ok {
		logger.Info("daily badge cycle skipped: target date falls on a weekend")
		return nil
	}
	from, to := e.params.businessDayBounds(target)

	return e.store.InTx(ctx, func(s Store) error {
		if err := s.AcquireCycleLock(ctx, target); err != nil {
			return fmt.Errorf("cycle lock failed: %w", err)
		}

		// Étape 2 : un seul client_hero actif à la fois. Un échec ici n'empêche
		// pas l'attribution du jour.
		if err := s.DeactivateBadge(ctx, model.BadgeClientHero); err != nil {
			logger.Warning("client_hero deactivation failed: %v", err)
		}

		// Étape 3 : l'agrégation est fatale, sans elle pas de vainqueur fiable.
		totals, err := s.DailyTotals(ctx, from, to)
		if err != nil {
			return fmt.Errorf("daily totals aggregation failed: %w", err)
		}

		winner, ok := pickWinner(totals)
		if !ok {
			logger.Info("daily badge cycle: no strictly-highest positive total, no badge awarded")
			return nil
		}

		// Étape 4 : garde de ré-attribution (idempotence du cron).
		already, err := s.HasBadgeOn(ctx, winner.UserID, model.BadgeClientHero, from, to)
		if err != nil {
			return fmt.Errorf("badge guard failed: %w", err)
		}
		if already {
			logger.Info("daily badge cycle: client_hero already awarded to %s for this date", winner.Username)
			return nil
		}

		// Étape 5 : badge + entrée de ledger.
		badge := &model.Badge{
			UserID:      winner.UserID,
			Username:    winner.Username,
			BadgeID:     model.BadgeClientHero,
			AchievedAt:  e.clampToDay(now, from, to),
			ResetPeriod: model.ResetDaily,
			IsActive:    true,
			Metadata: map[string]interface{}{
				"daily_total": winner.Total,
			},
		}
		if err := s.InsertBadge(ctx, badge); err != nil {
			return fmt.Errorf("client_hero insert failed: %w", err)
		}

		// Datée dans la journée cible, comme le badge : un cycle qui score la
		// veille ne doit pas déverser le bonus dans les totaux du lendemain
		entry := &model.LedgerEntry{
			UserID:        winner.UserID,
			Username:      winner.Username,
			EventType:     model.EventBadgeEarned,
			PointsAwarded: pointsBadgeEarned,
			Details: map[string]interface{}{
				"reason":   "Client Hero of the day",
				"badge_id": model.BadgeClientHero,
			},
			CreatedAt: e.clampToDay(now, from, to),
		}
		if err := s.InsertEntry(ctx, entry); err != nil {
			return fmt.Errorf("badge ledger insert failed: %w", err)
		}

		logger.Success("client_hero awarded to %s (%d points on target date)", winner.Username, winner.Total)

		// Étape 6 : Perfect Day, avant toute remise à zéro.
		e.checkPerfectDay(ctx, s, winner, from, to)

		// Étape 7 : remise à zéro des autres badges quotidiens, seulement
		// maintenant pour ne pas perturber l'évaluation du Perfect Day.
		if err := s.DeactivateDailyBadgesExcept(ctx, model.BadgeClientHero); err != nil {
			logger.Warning("daily badge reset failed: %v", err)
		}

		return nil
	})
}

// checkPerfectDay vérifie la combinaison speed_demon + sniper + lightning sans
// turtle sur la date cible. Best-effort : tout échec est loggé seulement.
func (e *Engine) checkPerfectDay(ctx context.Context, s Store, winner model.UserTotal, from, to time.Time) {
	for _, badgeID := range perfectDayRequired {
		has, err := s.HasBadgeOn(ctx, winner.UserID, badgeID, from, to)
		if err != nil {
			logger.Warning("perfect day check failed on %s: %v", badgeID, err)
			return
		}
		if !has {
			return
		}
	}

	hasTurtle, err := s.HasBadgeOn(ctx, winner.UserID, model.BadgeTurtle, from, to)
	if err != nil {
		logger.Warning("perfect day turtle check failed: %v", err)
		return
	}
	if hasTurtle {
		return
	}

	entry := &model.LedgerEntry{
		UserID:        winner.UserID,
		Username:      winner.Username,
		EventType:     model.EventPerfectDay,
		PointsAwarded: pointsPerfectDay,
		Details: map[string]interface{}{
			"reason": "Perfect Day achieved",
		},
		CreatedAt: e.clampToDay(e.now(), from, to),
	}
	if err := s.InsertEntry(ctx, entry); err != nil {
		logger.Warning("perfect day ledger insert failed: %v", err)
		return
	}

	// Diffusée à tous les utilisateurs, pas seulement au vainqueur.
	note := &model.BadgeNotification{
		Username: winner.Username,
		BadgeID:  model.BadgePerfectDay,
		Message:  fmt.Sprintf("%s achieved a PERFECT DAY! +%d points", winner.Username, pointsPerfectDay),
	}
	if err := s.BroadcastBadgeNotification(ctx, note); err != nil {
		logger.Warning("perfect day broadcast failed: %v", err)
	}

	logger.Success("PERFECT DAY for %s (+%d points)", winner.Username, pointsPerfectDay)
}

// cycleTarget choisit la date métier à scorer : aujourd'hui quand on est dans
// la fenêtre de fin de journée, hier sinon. Les week-ends ne sont jamais scorés.
func (e *Engine) cycleTarget(now time.Time) (time.Time, bool) {
	bt := e.params.businessTime(now)
	target := bt
	if bt.Hour() < e.params.EndOfDayHour {
		target = bt.AddDate(0, 0, -1)
	}

	if target.Weekday() == time.Saturday || target.Weekday() == time.Sunday {
		return time.Time{}, false
	}
	// On renvoie l'instant UTC correspondant au midi métier de la date cible,
	// pour que businessDayBounds retombe sur le bon jour.
	noon := time.Date(target.Year(), target.Month(), target.Day(), 12, 0, 0, 0, time.UTC)
	return noon.Add(-e.params.BusinessTZOffset), true
}

// clampToDay renvoie now si l'instant tombe dans la journée cible, sinon la fin
// de cette journée : un cycle qui score la veille date le badge dans la veille.
func (e *Engine) clampToDay(now time.Time, from, to time.Time) time.Time {
	n := now.UTC()
	if n.Before(from) {
		return from
	}
	if !n.Before(to) {
		return to.Add(-time.Second)
	}
	return n
}

// pickWinner renvoie l'utilisateur au total strictement le plus élevé et
// positif. Une égalité en tête ne désigne personne.
func pickWinner(totals []model.UserTotal) (model.UserTotal, bool) {
	var best model.UserTotal
	found := false
	tied := false

	for _, t := range totals {
		switch {
		case !found || t.Total > best.Total:
			best = t
			found = true
			tied = false
		case t.Total == best.Total:
			tied = true
		}
	}

	if !found || tied || best.Total <= 0 {
		return model.UserTotal{}, false
	}
	return best, true
}
