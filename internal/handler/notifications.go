package handler

import (
	"context"
	"net/http"

	"github.com/bpal-app/bpal-backend/internal/database"
	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/scanner"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/gorilla/mux"
)

// GetUserNotifications récupère le fil de notifications d'un utilisateur :
// ses paliers, plus les diffusions de badges qui le listent en destinataire
func GetUserNotifications(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	ctx := context.Background()

	milestoneRows, err := database.DB.Query(ctx, `
		SELECT id, user_id, username, threshold, message, is_read, created_at
		FROM milestone_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer les notifications", err)
		return
	}
	defer milestoneRows.Close()

	var milestones []model.MilestoneNotification
	for milestoneRows.Next() {
		n, err := scanner.ScanMilestoneNotification(milestoneRows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture des notifications", err)
			return
		}
		milestones = append(milestones, *n)
	}

	badgeRows, err := database.DB.Query(ctx, `
		SELECT id, user_id, username, badge_id, message, recipients, is_read, created_at
		FROM badge_notifications
		WHERE user_id = $1 OR $1 = ANY(recipients)
		ORDER BY created_at DESC
		LIMIT 50
	`, userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer les notifications de badges", err)
		return
	}
	defer badgeRows.Close()

	var badges []model.BadgeNotification
	for badgeRows.Next() {
		n, err := scanner.ScanBadgeNotification(badgeRows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture des notifications de badges", err)
			return
		}
		badges = append(badges, *n)
	}

	utils.Success(w, map[string]interface{}{
		"milestones": milestones,
		"badges":     badges,
	})
}

// MarkNotificationRead bascule le flag is_read d'une notification de palier
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	ctx := context.Background()

	res, err := database.DB.Exec(ctx, `
		UPDATE milestone_notifications SET is_read = true WHERE id = $1
	`, id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de marquer la notification", err)
		return
	}
	if res.RowsAffected() == 0 {
		utils.ErrorSimple(w, http.StatusNotFound, "notification introuvable")
		return
	}

	utils.Success(w, map[string]bool{"read": true})
}
