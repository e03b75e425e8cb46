package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bpal-app/bpal-backend/internal/database"
	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/gorilla/mux"
)

// periodStart calcule la date de début selon la période demandée
func periodStart(period string) time.Time {
	now := time.Now()
	switch period {
	case "daily":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "weekly":
		return now.AddDate(0, 0, -7)
	case "monthly":
		return now.AddDate(0, 0, -30)
	default: // all-time
		return time.Time{}
	}
}

// GetLeaderboard récupère le classement général des points
func GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period := query.Get("period") // daily, weekly, monthly, all-time
	limitStr := query.Get("limit")

	if period == "" {
		period = "all-time"
	}

	limit := 50
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	ctx := context.Background()
	startDate := periodStart(period)

	rows, err := database.DB.Query(ctx, `
		WITH user_scores AS (
			SELECT
				pl.user_id,
				MAX(pl.username) as username,
				SUM(pl.points_awarded) as score
			FROM points_ledger pl
			WHERE pl.created_at >= $1
			GROUP BY pl.user_id
		),
		ranked_users AS (
			SELECT
				us.user_id,
				us.username,
				us.score,
				ROW_NUMBER() OVER (ORDER BY us.score DESC) as rank
			FROM user_scores us
		)
		SELECT
			ru.user_id,
			ru.username,
			ru.rank,
			ru.score,
			COALESCE(array_agg(b.badge_id) FILTER (WHERE b.badge_id IS NOT NULL), '{}') as badges
		FROM ranked_users ru
		LEFT JOIN badges b ON b.user_id = ru.user_id AND b.is_active = true
		GROUP BY ru.user_id, ru.username, ru.rank, ru.score
		ORDER BY ru.rank
		LIMIT $2
	`, startDate, limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer le classement", err)
		return
	}
	defer rows.Close()

	var leaderboard []model.LeaderboardEntry
	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(
			&entry.UserID, &entry.UserName, &entry.Rank, &entry.Score, &entry.Badges,
		); err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture du classement", err)
			return
		}
		leaderboard = append(leaderboard, entry)
	}

	utils.Success(w, leaderboard)
}

// GetTopPerformers récupère le podium (top 3)
func GetTopPerformers(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "daily"
	}

	ctx := context.Background()
	startDate := periodStart(period)

	rows, err := database.DB.Query(ctx, `
		WITH user_scores AS (
			SELECT
				pl.user_id,
				MAX(pl.username) as username,
				SUM(pl.points_awarded) as score
			FROM points_ledger pl
			WHERE pl.created_at >= $1
			GROUP BY pl.user_id
		),
		ranked_users AS (
			SELECT
				us.user_id,
				us.username,
				us.score,
				ROW_NUMBER() OVER (ORDER BY us.score DESC) as rank
			FROM user_scores us
		)
		SELECT user_id, username, rank, score
		FROM ranked_users
		ORDER BY rank
		LIMIT 3
	`, startDate)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer le podium", err)
		return
	}
	defer rows.Close()

	var podium []model.LeaderboardEntry
	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.UserName, &entry.Rank, &entry.Score); err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture du podium", err)
			return
		}
		podium = append(podium, entry)
	}

	utils.Success(w, podium)
}

// GetUserRank récupère le rang d'un utilisateur dans le classement
func GetUserRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	period := r.URL.Query().Get("period")

	if period == "" {
		period = "all-time"
	}

	ctx := context.Background()
	startDate := periodStart(period)

	var userRank model.UserRank
	err := database.DB.QueryRow(ctx, `
		WITH user_scores AS (
			SELECT
				pl.user_id,
				SUM(pl.points_awarded) as score
			FROM points_ledger pl
			WHERE pl.created_at >= $1
			GROUP BY pl.user_id
		),
		ranked_users AS (
			SELECT
				us.user_id,
				us.score,
				ROW_NUMBER() OVER (ORDER BY us.score DESC) as rank
			FROM user_scores us
		),
		total_count AS (
			SELECT COUNT(*) as total FROM ranked_users
		)
		SELECT
			COALESCE(ru.rank, (SELECT total FROM total_count) + 1) as rank,
			COALESCE(ru.score, 0) as score,
			(SELECT total FROM total_count) as total_users
		FROM ranked_users ru
		RIGHT JOIN (SELECT $2::text as uid) u ON ru.user_id = u.uid
	`, startDate, userID).Scan(&userRank.Rank, &userRank.Score, &userRank.TotalUsers)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer le rang", err)
		return
	}

	userRank.UserID = userID

	// Calculer le percentile
	if userRank.TotalUsers > 0 {
		userRank.Percentile = float64(userRank.Rank) / float64(userRank.TotalUsers) * 100
	} else {
		userRank.Percentile = 100
	}

	utils.Success(w, userRank)
}
