package model

import (
	"time"
)

// Identifiants des badges quotidiens.
const (
	BadgeSpeedDemon = "speed_demon"
	BadgeSniper     = "sniper"
	BadgeLightning  = "lightning"
	BadgeTurtle     = "turtle"
	BadgeClientHero = "client_hero"
	BadgePerfectDay = "perfect_day"
)

// ResetDaily est la cadence de remise à zéro des badges quotidiens.
const ResetDaily = "daily"

// Badge représente un succès détenu par un utilisateur.
// Un badge n'est jamais supprimé : il est désactivé au changement de jour.
type Badge struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Username    string                 `json:"username"`
	BadgeID     string                 `json:"badgeId"`
	AchievedAt  time.Time              `json:"achievedAt"`
	ResetPeriod string                 `json:"resetPeriod"`
	IsActive    bool                   `json:"isActive"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
