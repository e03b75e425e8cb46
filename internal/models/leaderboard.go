package model

// LeaderboardEntry est une ligne du classement de points.
type LeaderboardEntry struct {
	UserID   string   `json:"userId"`
	UserName string   `json:"userName"`
	Rank     int      `json:"rank"`
	Score    int      `json:"score"` // Somme signée des entrées du ledger
	Badges   []string `json:"badges,omitempty"`
}

// UserRank est la position d'un utilisateur dans le classement.
type UserRank struct {
	UserID     string  `json:"userId"`
	Rank       int     `json:"rank"`
	Score      int     `json:"score"`
	TotalUsers int     `json:"totalUsers"`
	Percentile float64 `json:"percentile"` // Top X%
}
