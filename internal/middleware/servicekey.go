package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/bpal-app/bpal-backend/internal/utils"
)

// ServiceKeyMiddleware protège les endpoints internes (cron) avec une clé
// partagée. L'authentification des utilisateurs est déléguée au fournisseur
// d'auth externe : ici on vérifie seulement que l'appelant est un service connu.
func ServiceKeyMiddleware(serviceKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if serviceKey == "" {
				// Pas de clé configurée : endpoint ouvert (environnements de dev)
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-Service-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(serviceKey)) != 1 {
				utils.ErrorSimple(w, http.StatusUnauthorized, "invalid service key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
