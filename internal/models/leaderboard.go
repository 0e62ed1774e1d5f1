package models

type LeaderboardItem struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank,omitempty"`
}

type Metrics struct {
	TotalUsers         int `json:"total_users"`
	TotalPoints        int `json:"total_points"`
	TotalTransactions  int `json:"total_transactions"`
	PendingRedemptions int `json:"pending_redemptions"`
}

type LeaderboardResponse struct {
	Leaderboard  []*LeaderboardItem `json:"leaderboard"`
	Me           *LeaderboardItem   `json:"me,omitempty"`
	Participants int64              `json:"participants"`
}
