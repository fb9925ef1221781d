package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        string `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	Password  string `json:"-" db:"password"` // Empty for Firebase-managed accounts
	Name      string `json:"name" db:"name"`
	Role      string `json:"role" db:"role"` // "user" or "admin"
	Points    int    `json:"points" db:"points"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID        string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Points    int    `json:"points"`
	CreatedAt int64  `json:"created_at"`
}

// LeaderboardEntry is one row of GET /user/leaderboard
type LeaderboardEntry struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Points int    `json:"points" db:"points"`
}

// FCMToken is a push token registered by a citizen's device
type FCMToken struct {
	ID         int    `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	Token      string `json:"token" db:"token"`
	DeviceType string `json:"device_type" db:"device_type"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}
