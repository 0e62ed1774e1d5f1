package models

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the resolved session handed to the core by the auth layer.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (identity Identity) IsAdmin() bool {
	return identity.Role == RoleAdmin
}

type UserSummary struct {
	User    User     `json:"user"`
	Balance int      `json:"balance"`
	Streak  int      `json:"streak"`
	Badges  []string `json:"badges"`
}
