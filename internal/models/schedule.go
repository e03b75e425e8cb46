package model

import (
	"time"
)

// Schedule est l'horaire de prise de poste d'un utilisateur : soit le défaut
// hebdomadaire (Weekday), soit un override ponctuel pour une date précise.
// StartTime est au format "15:04", exprimé en heure métier.
type Schedule struct {
	UserID    string     `json:"userId"`
	Weekday   int        `json:"weekday"`
	Date      *time.Time `json:"date,omitempty"`
	StartTime string     `json:"startTime"`
}
