package models

import "time"

// Session is the short-lived login record kept in Redis next to the JWT.
type Session struct {
	UserID       int64     `json:"user_id"`
	SessionID    string    `json:"session_id"`
	SteamID      string    `json:"steam_id"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
