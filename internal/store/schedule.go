package store

import (
	"context"
	"errors"
	"time"

	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

// ScheduleOverride renvoie l'horaire exceptionnel de l'utilisateur pour la date
// métier donnée, ou nil s'il n'y en a pas.
func (p *Postgres) ScheduleOverride(ctx context.Context, userID string, date time.Time) (*model.Schedule, error) {
	var s model.Schedule
	var d time.Time
	err := p.db.QueryRow(ctx, `
		SELECT user_id, date, start_time
		FROM schedule_overrides
		WHERE user_id = $1 AND date = $2::date
	`, userID, date.Format("2006-01-02")).Scan(&s.UserID, &d, &s.StartTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Date = &d
	return &s, nil
}

// WeekdaySchedule renvoie l'horaire par défaut du jour de semaine, ou nil.
func (p *Postgres) WeekdaySchedule(ctx context.Context, userID string, weekday time.Weekday) (*model.Schedule, error) {
	var s model.Schedule
	err := p.db.QueryRow(ctx, `
		SELECT user_id, weekday, start_time
		FROM schedules
		WHERE user_id = $1 AND weekday = $2
	`, userID, int(weekday)).Scan(&s.UserID, &s.Weekday, &s.StartTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
