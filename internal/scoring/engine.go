package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/bpal-app/bpal-backend/internal/logger"
	model "github.com/bpal-app/bpal-backend/internal/models"
)

// Engine est le moteur de points. Il est sans état : toute la cohérence repose
// sur le Store (transactions sérialisables) et sur le garde anti-doublon.
type Engine struct {
	store  Store
	params Params
	now    func() time.Time // injectable pour les tests
}

func NewEngine(store Store, params Params) *Engine {
	return &Engine{
		store:  store,
		params: params,
		now:    time.Now,
	}
}

// outcome est le résultat de l'évaluation d'une règle : les points du demandeur,
// la raison, les métadonnées, et les écritures secondaires à réaliser ensuite.
type outcome struct {
	points         int
	reason         string
	details        map[string]interface{}
	ticketID       *int
	checkMilestone bool

	// forceInsert insère l'entrée primaire même à 0 point (ex: ouverture
	// détectée comme doublon, marqueur de réouverture).
	forceInsert bool

	// sideEntries sont insérées après le commit de la transaction primaire,
	// en best-effort : un échec est loggé mais ne fait pas échouer la requête.
	sideEntries []*model.LedgerEntry
}

// Award traite un événement de scoring : garde anti-doublon, évaluation de la
// règle en transaction sérialisable, insertion primaire, puis effets secondaires
// et paliers en best-effort.
func (e *Engine) Award(ctx context.Context, req *model.AwardRequest) (*model.AwardResult, error) {
	if req.EventType == "" {
		return nil, fmt.Errorf("eventType is required")
	}

	// Le cycle quotidien passe par le même point d'entrée (déclenchement cron).
	if req.EventType == model.EventClientHeroCheck {
		if err := e.RunDailyBadgeCycle(ctx, e.now()); err != nil {
			return nil, err
		}
		return &model.AwardResult{PointsAwarded: 0, Message: "daily badge cycle completed"}, nil
	}

	if req.UserID == "" || req.Username == "" {
		return nil, fmt.Errorf("userId and username are required")
	}

	ticketID := payloadTicketID(req.Data)

	// Garde anti-doublon : une resoumission dans la fenêtre n'est pas une
	// erreur, l'appelant ne peut pas distinguer un retry réseau d'un double clic.
	dup, err := e.isDuplicate(ctx, req.UserID, req.EventType, ticketID)
	if err != nil {
		return nil, fmt.Errorf("duplicate guard failed: %w", err)
	}
	if dup {
		logger.Info("duplicate request absorbed: %s %s ticket=%v", req.EventType, req.UserID, ticketID)
		return &model.AwardResult{
			PointsAwarded: 0,
			Duplicate:     true,
			Message:       "duplicate request ignored",
		}, nil
	}

	var out *outcome
	err = e.store.InTx(ctx, func(s Store) error {
		var evalErr error
		out, evalErr = e.evaluate(ctx, s, req)
		if evalErr != nil {
			return evalErr
		}

		if out.points != 0 || out.forceInsert {
			entry := &model.LedgerEntry{
				UserID:          req.UserID,
				Username:        req.Username,
				EventType:       req.EventType,
				PointsAwarded:   out.points,
				RelatedTicketID: out.ticketID,
				Details:         out.details,
				CreatedAt:       e.now(),
			}
			if insErr := s.InsertEntry(ctx, entry); insErr != nil {
				return fmt.Errorf("primary ledger insert failed: %w", insErr)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("award %s for %s failed: %v", req.EventType, req.UserID, err)
		return nil, err
	}

	// Écritures secondaires (points d'assist, reversals des autres utilisateurs).
	// Best-effort : l'action primaire de l'utilisateur est déjà actée.
	for _, side := range out.sideEntries {
		if insErr := e.store.InsertEntry(ctx, side); insErr != nil {
			logger.Warning("secondary ledger insert failed (%s for %s): %v", side.EventType, side.UserID, insErr)
		}
	}

	if out.checkMilestone {
		e.checkMilestones(ctx, req.UserID, req.Username)
	}

	if out.points != 0 {
		logger.Success("%s: %+d points for %s (%s)", req.EventType, out.points, req.Username, out.reason)
	}

	return &model.AwardResult{PointsAwarded: out.points, Message: out.reason}, nil
}

// BusinessDayBounds expose la fenêtre UTC du jour métier contenant t, pour les
// endpoints de consultation (total du jour, compteur de paliers).
func (e *Engine) BusinessDayBounds(t time.Time) (time.Time, time.Time) {
	return e.params.businessDayBounds(t)
}

// QualifyingCount renvoie le compteur d'événements qualifiants de l'utilisateur
// sur le jour métier contenant t. Même prédicat que l'évaluateur de paliers
// (tickets supprimés le jour même exclus) : l'endpoint de consultation et les
// bonus ne peuvent pas diverger.
func (e *Engine) QualifyingCount(ctx context.Context, userID string, t time.Time) (int, error) {
	from, to := e.params.businessDayBounds(t)
	return e.store.CountQualifyingEvents(ctx, userID, from, to)
}

// isDuplicate classifie la requête comme doublon si la dernière entrée du même
// utilisateur et du même type date de moins de GuardWindow et référence le même
// ticket (ou aucun des deux n'en référence). Deux tickets différents dans la
// fenêtre ne sont PAS des doublons.
func (e *Engine) isDuplicate(ctx context.Context, userID, eventType string, ticketID *int) (bool, error) {
	last, err := e.store.LastEventWithin(ctx, userID, eventType, e.params.GuardWindow)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return sameTicketRef(last.RelatedTicketID, ticketID), nil
}

func sameTicketRef(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a != nil && b != nil {
		return *a == *b
	}
	return false
}
