package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bpal-app/bpal-backend/internal/database"
	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/scanner"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/gorilla/mux"
)

const badgeColumns = `id, user_id, username, badge_id, achieved_at, reset_period, is_active, metadata`

// GetBadges récupère les badges, actifs seulement par défaut (?active=false pour tout)
func GetBadges(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"

	ctx := context.Background()

	sqlQuery := `SELECT ` + badgeColumns + ` FROM badges`
	if activeOnly {
		sqlQuery += ` WHERE is_active = true`
	}
	sqlQuery += ` ORDER BY achieved_at DESC`

	rows, err := database.DB.Query(ctx, sqlQuery)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer les badges", err)
		return
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		b, err := scanner.ScanBadge(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture des badges", err)
			return
		}
		badges = append(badges, *b)
	}

	utils.Success(w, badges)
}

// GetUserBadges récupère les badges d'un utilisateur
func GetUserBadges(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	ctx := context.Background()

	rows, err := database.DB.Query(ctx, `
		SELECT `+badgeColumns+`
		FROM badges
		WHERE user_id = $1
		ORDER BY achieved_at DESC
	`, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer les badges", err)
		return
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		b, err := scanner.ScanBadge(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture des badges", err)
			return
		}
		badges = append(badges, *b)
	}

	utils.Success(w, badges)
}

// RunDailyBadgeCycle déclenche le cycle quotidien des badges (endpoint cron,
// protégé par la clé de service). Idempotent par date cible.
func RunDailyBadgeCycle(w http.ResponseWriter, r *http.Request) {
	if err := Engine.RunDailyBadgeCycle(r.Context(), time.Now()); err != nil {
		utils.Error(w, http.StatusInternalServerError, "le cycle quotidien a échoué", err)
		return
	}
	utils.Message(w, "daily badge cycle completed")
}
