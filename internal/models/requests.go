package models

import "fmt"

const (
	MinClientSeedLen = 8
	MaxClientSeedLen = 64
)

// OpenRequest is the body of POST /cases/:slug/open.
type OpenRequest struct {
	ClientSeed string `json:"client_seed" binding:"required"`
}

// Validate rejects malformed client seeds before any state is read. Seeds are
// never truncated; out-of-bounds length is a user error.
func (r *OpenRequest) Validate() error {
	n := len(r.ClientSeed)
	if n < MinClientSeedLen {
		return fmt.Errorf("client seed must be at least %d characters", MinClientSeedLen)
	}
	if n > MaxClientSeedLen {
		return fmt.Errorf("client seed must be at most %d characters", MaxClientSeedLen)
	}
	for _, c := range r.ClientSeed {
		if c < 0x21 || c > 0x7e {
			return fmt.Errorf("client seed must be printable ASCII without spaces")
		}
	}
	return nil
}

// GiveawayEntryRequest is the body of POST /giveaways/:id/enter.
type GiveawayEntryRequest struct {
	Entries int64 `json:"entries" binding:"required"`
}

func (r *GiveawayEntryRequest) Validate() error {
	if r.Entries <= 0 {
		return fmt.Errorf("entries must be positive")
	}
	if r.Entries > 1000 {
		return fmt.Errorf("at most 1000 entries per request")
	}
	return nil
}

// SessionRequest is the identity payload POSTed by the login collaborator.
type SessionRequest struct {
	SteamID     string `json:"steam_id" binding:"required"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

func (r *SessionRequest) Validate() error {
	if r.SteamID == "" {
		return fmt.Errorf("steam_id is required")
	}
	if len(r.SteamID) > 32 {
		return fmt.Errorf("steam_id too long")
	}
	return nil
}
