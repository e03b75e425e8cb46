package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bpal-app/bpal-backend/internal/database"
	model "github.com/bpal-app/bpal-backend/internal/models"
	"github.com/bpal-app/bpal-backend/internal/scanner"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/gorilla/mux"
)

// AwardPoints est le point d'entrée du moteur de points. Les modules clients
// (tickets, planning, statut) l'appellent après le succès de leur action primaire.
func AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req model.AwardRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "JSON invalide", err)
		return
	}

	if req.EventType == "" {
		utils.ErrorSimple(w, http.StatusBadRequest, "eventType requis")
		return
	}
	if req.EventType != model.EventClientHeroCheck && (req.UserID == "" || req.Username == "") {
		utils.ErrorSimple(w, http.StatusBadRequest, "userId et username requis")
		return
	}

	result, err := Engine.Award(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible d'attribuer les points", err)
		return
	}

	utils.Success(w, result)
}

// GetUserHistory récupère les dernières entrées du ledger d'un utilisateur
func GetUserHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	query := r.URL.Query()
	limit := 50
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(query.Get("offset")); err == nil && o > 0 {
		offset = o
	}

	ctx := context.Background()

	rows, err := database.DB.Query(ctx, `
		SELECT id, user_id, username, event_type, points_awarded, related_ticket_id, details, created_at
		FROM points_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de récupérer l'historique", err)
		return
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanner.ScanLedgerEntry(rows)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "erreur de lecture", err)
			return
		}
		entries = append(entries, *entry)
	}

	utils.Success(w, entries)
}

// GetUserToday récupère le total du jour métier courant et le compteur de
// tickets qualifiants pour les paliers
func GetUserToday(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]

	from, to := Engine.BusinessDayBounds(time.Now())

	ctx := context.Background()

	var summary struct {
		UserID          string    `json:"userId"`
		Total           int       `json:"total"`
		QualifyingCount int       `json:"qualifyingCount"`
		From            time.Time `json:"from"`
		To              time.Time `json:"to"`
	}
	summary.UserID = userID
	summary.From = from
	summary.To = to

	err := database.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(points_awarded), 0)
		FROM points_ledger
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`, userID, from, to).Scan(&summary.Total)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de calculer le total du jour", err)
		return
	}

	// Même prédicat que l'évaluateur de paliers (exclusion des tickets
	// supprimés le jour même comprise)
	count, err := Engine.QualifyingCount(ctx, userID, time.Now())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "impossible de compter les événements qualifiants", err)
		return
	}
	summary.QualifyingCount = count

	utils.Success(w, summary)
}
