package model

import (
	"time"
)

// MilestoneNotification est diffusée quand un utilisateur franchit un palier
// de tickets dans la journée. Écrite une seule fois par palier, jamais modifiée
// par le moteur (le flag isRead appartient à la couche UI).
type MilestoneNotification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Threshold int       `json:"threshold"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// BadgeNotification annonce un badge gagné. Quand Recipients est non vide,
// la notification est diffusée à tous les utilisateurs listés (Perfect Day).
type BadgeNotification struct {
	ID         string    `json:"id"`
	UserID     *string   `json:"userId,omitempty"`
	Username   string    `json:"username"`
	BadgeID    string    `json:"badgeId"`
	Message    string    `json:"message"`
	Recipients []string  `json:"recipients,omitempty"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}
