package api

import (
	"net/http"

	"github.com/bpal-app/bpal-backend/internal/handler"
	"github.com/bpal-app/bpal-backend/internal/middleware"
	"github.com/bpal-app/bpal-backend/internal/utils"
	"github.com/fatih/color"
	"github.com/gorilla/mux"
)

func SetupRouter(serviceKey string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware)

	cronRoutes := r.PathPrefix("/cron").Subrouter()
	cronRoutes.Use(middleware.ServiceKeyMiddleware(serviceKey))

	// Root - API documentation
	r.HandleFunc("/", handler.RootHandler).Methods(http.MethodGet)

	// Points
	r.HandleFunc("/points/award", handler.AwardPoints).Methods(http.MethodPost)
	r.HandleFunc("/points/leaderboard", handler.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/points/leaderboard/top", handler.GetTopPerformers).Methods(http.MethodGet)
	r.HandleFunc("/points/users/{userId}/rank", handler.GetUserRank).Methods(http.MethodGet)
	r.HandleFunc("/points/users/{userId}/history", handler.GetUserHistory).Methods(http.MethodGet)
	r.HandleFunc("/points/users/{userId}/today", handler.GetUserToday).Methods(http.MethodGet)

	// Badges
	r.HandleFunc("/badges", handler.GetBadges).Methods(http.MethodGet)
	r.HandleFunc("/badges/users/{userId}", handler.GetUserBadges).Methods(http.MethodGet)

	// Notifications
	r.HandleFunc("/notifications/users/{userId}", handler.GetUserNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", handler.MarkNotificationRead).Methods(http.MethodPatch)

	// Cron (clé de service)
	cronRoutes.HandleFunc("/daily-badge-cycle", handler.RunDailyBadgeCycle).Methods(http.MethodPost)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.LogError("404 Not Found: %s %s", r.Method, r.URL.Path)
		color.Yellow("[404] %s %s (route non trouvée)", r.Method, r.URL.Path)
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}
