package services

import "gemcase-backend/internal/models"

// DropFeedItem is the public shape of one opening pushed to the live feed.
// No seeds or balances; just what the community sees.
type DropFeedItem struct {
	OpenID      int64         `json:"open_id"`
	DisplayName string        `json:"display_name"`
	CaseSlug    string        `json:"case_slug"`
	CaseName    string        `json:"case_name"`
	ItemName    string        `json:"item_name"`
	Rarity      models.Rarity `json:"rarity"`
	OpenedAt    string        `json:"opened_at"`
}

// Broadcaster pushes live updates to connected clients.
type Broadcaster interface {
	BroadcastDrop(drop *DropFeedItem)
	BroadcastEvent(event *models.GlobalEvent)
}
