package chat

import "time"

// SessionInfo describes an assistant widget session as exposed to adapters.
type SessionInfo struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`
}
