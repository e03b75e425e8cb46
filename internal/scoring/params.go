package scoring

import (
	"time"

	"github.com/bpal-app/bpal-backend/internal/config"
)

// Params regroupe les paramètres métier du moteur. Les valeurs historiques
// sont dans DefaultParams ; la production les charge depuis la config.
type Params struct {
	SimilarityThreshold float64
	DuplicateWindow     time.Duration
	GuardWindow         time.Duration
	BusinessTZOffset    time.Duration
	EndOfDayHour        int
}

func DefaultParams() Params {
	return Params{
		SimilarityThreshold: 0.80,
		DuplicateWindow:     48 * time.Hour,
		GuardWindow:         5 * time.Second,
		BusinessTZOffset:    2 * time.Hour,
		EndOfDayHour:        18,
	}
}

// ParamsFromConfig convertit la configuration en paramètres moteur.
func ParamsFromConfig(sc config.ScoringConfig) Params {
	return Params{
		SimilarityThreshold: sc.SimilarityThreshold,
		DuplicateWindow:     time.Duration(sc.DuplicateWindowDays) * 24 * time.Hour,
		GuardWindow:         time.Duration(sc.GuardWindowSeconds) * time.Second,
		BusinessTZOffset:    time.Duration(sc.BusinessTZOffsetHours) * time.Hour,
		EndOfDayHour:        sc.EndOfDayHour,
	}
}

// businessTime convertit un instant UTC en heure métier (UTC+2 par défaut).
func (p Params) businessTime(t time.Time) time.Time {
	return t.UTC().Add(p.BusinessTZOffset)
}

// businessDayBounds renvoie les bornes UTC [from, to) du jour métier contenant t.
// Les paliers et badges quotidiens se fenêtrent sur le minuit métier, pas UTC.
func (p Params) businessDayBounds(t time.Time) (time.Time, time.Time) {
	bt := p.businessTime(t)
	midnight := time.Date(bt.Year(), bt.Month(), bt.Day(), 0, 0, 0, 0, time.UTC)
	from := midnight.Add(-p.BusinessTZOffset)
	return from, from.Add(24 * time.Hour)
}
