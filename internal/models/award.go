package model

// AwardRequest est le corps de POST /points/award. Data porte la charge utile
// propre à chaque type d'événement (ticketId, priority, timestamp, ...).
type AwardRequest struct {
	EventType string                 `json:"eventType"`
	UserID    string                 `json:"userId"`
	Username  string                 `json:"username"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// AwardResult est la réponse du moteur. Duplicate vaut true quand la requête a
// été absorbée par le garde anti-doublon : ce n'est pas une erreur.
type AwardResult struct {
	PointsAwarded int    `json:"pointsAwarded"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	Message       string `json:"message,omitempty"`
}
