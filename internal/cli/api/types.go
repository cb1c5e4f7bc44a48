package api

import "time"

// User is an account as the server reports it.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is what a successful login yields.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PullRequest asks for one synchronous generation run.
type PullRequest struct {
	Amount          int      `json:"-"`
	UserID          string   `json:"user_id,omitempty"`
	PostID          string   `json:"post_id,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
	SpeedMultiplier *float64 `json:"speed_multiplier,omitempty"`
}

// PullResponse is the full result of a synchronous run.
type PullResponse struct {
	Msg     string           `json:"msg"`
	BatchID string           `json:"batch_id"`
	Data    []map[string]any `json:"data"`
}

// Batch is one generation run's ledger entry.
type Batch struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchData is one kind of entity produced by a batch.
type BatchData struct {
	BatchID string           `json:"batch_id"`
	Data    []map[string]any `json:"data"`
}
