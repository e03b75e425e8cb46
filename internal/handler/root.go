package handler

import (
	"net/http"

	"github.com/bpal-app/bpal-backend/internal/utils"
)

// RootHandler affiche toutes les routes disponibles de l'API
func RootHandler(w http.ResponseWriter, r *http.Request) {
	routes := map[string]interface{}{
		"name":    "B-Pal Scoring API",
		"version": "1.0.0",
		"status":  "running",
		"routes": map[string]interface{}{
			"points": []map[string]string{
				{"method": "POST", "path": "/points/award", "description": "Attribuer des points pour un événement"},
				{"method": "GET", "path": "/points/leaderboard", "description": "Classement général (params: period, limit)"},
				{"method": "GET", "path": "/points/leaderboard/top", "description": "Podium (top 3)"},
				{"method": "GET", "path": "/points/users/{userId}/rank", "description": "Rang d'un utilisateur (params: period)"},
				{"method": "GET", "path": "/points/users/{userId}/history", "description": "Historique du ledger (params: limit, offset)"},
				{"method": "GET", "path": "/points/users/{userId}/today", "description": "Total et compteur du jour métier"},
			},
			"badges": []map[string]string{
				{"method": "GET", "path": "/badges", "description": "Badges (param: active)"},
				{"method": "GET", "path": "/badges/users/{userId}", "description": "Badges d'un utilisateur"},
			},
			"notifications": []map[string]string{
				{"method": "GET", "path": "/notifications/users/{userId}", "description": "Notifications d'un utilisateur"},
				{"method": "PATCH", "path": "/notifications/{id}/read", "description": "Marquer une notification comme lue"},
			},
			"cron": []map[string]string{
				{"method": "POST", "path": "/cron/daily-badge-cycle", "description": "Déclencher le cycle quotidien des badges (clé de service requise)"},
			},
			"health": []map[string]string{
				{"method": "GET", "path": "/health", "description": "Health check de l'API"},
			},
		},
		"documentation": map[string]string{
			"description": "API de scoring pour B-Pal - Helpdesk et suivi de tickets",
		},
	}

	utils.Success(w, routes)
}

// HealthCheck vérifie que l'API répond
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, map[string]string{"status": "ok"})
}
