package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config regroupe la configuration du serveur, de la base et du moteur de points.
// Tout vient de l'environnement (préfixe BPAL_), avec des valeurs par défaut
// alignées sur la production.
type Config struct {
	Port       string
	CORSOrigin string
	ServiceKey string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	Scoring ScoringConfig
}

// ScoringConfig expose les paramètres métier du moteur. Les seuils historiques
// (0.80, 2 jours, 5 secondes, UTC+2) sont configurables pour les tests.
type ScoringConfig struct {
	SimilarityThreshold   float64
	DuplicateWindowDays   int
	GuardWindowSeconds    int
	BusinessTZOffsetHours int
	EndOfDayHour          int
	CycleCronSpec         string
}

// LoadConfig lit la configuration depuis l'environnement.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BPAL")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("SERVICE_KEY", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bpal")

	v.SetDefault("SIMILARITY_THRESHOLD", 0.80)
	v.SetDefault("DUPLICATE_WINDOW_DAYS", 2)
	v.SetDefault("GUARD_WINDOW_SECONDS", 5)
	v.SetDefault("BUSINESS_TZ_OFFSET_HOURS", 2)
	v.SetDefault("END_OF_DAY_HOUR", 18)
	v.SetDefault("CYCLE_CRON_SPEC", "30 23 * * *")

	cfg := &Config{
		Port:       v.GetString("PORT"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),
		ServiceKey: v.GetString("SERVICE_KEY"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		Scoring: ScoringConfig{
			SimilarityThreshold:   v.GetFloat64("SIMILARITY_THRESHOLD"),
			DuplicateWindowDays:   v.GetInt("DUPLICATE_WINDOW_DAYS"),
			GuardWindowSeconds:    v.GetInt("GUARD_WINDOW_SECONDS"),
			BusinessTZOffsetHours: v.GetInt("BUSINESS_TZ_OFFSET_HOURS"),
			EndOfDayHour:          v.GetInt("END_OF_DAY_HOUR"),
			CycleCronSpec:         v.GetString("CYCLE_CRON_SPEC"),
		},
	}

	if cfg.Scoring.SimilarityThreshold <= 0 || cfg.Scoring.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("invalid similarity threshold: %f", cfg.Scoring.SimilarityThreshold)
	}

	return cfg, nil
}
