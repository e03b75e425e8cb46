package model

import (
	"time"
)

// Ticket est une référence en lecture seule vers l'entité ticket, possédée par
// le backend principal. Le moteur de points ne touche jamais à son cycle de vie.
type Ticket struct {
	ID             int        `json:"id"`
	Subject        string     `json:"subject"`
	Priority       string     `json:"priority"` // Low, Medium, High, Urgent
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	AssignedTo     *string    `json:"assignedTo,omitempty"`
	AssignedToName string     `json:"assignedToName,omitempty"`
	LastAssignedAt *time.Time `json:"lastAssignedAt,omitempty"`
	IsReopened     bool       `json:"isReopened"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// TicketSubject est la projection (id, sujet) utilisée par la détection de doublons.
type TicketSubject struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
}
