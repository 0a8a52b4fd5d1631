package models

import (
	"time"
)

// AccountIdentity maps a Roblox username to its stable numeric user ID.
// Built per request by the resolver, never persisted.
type AccountIdentity struct {
	Name string `json:"username"`
	ID   int64  `json:"user_id"`
}

// CollectibleItem represents one limited item in a user's inventory.
// RecentAveragePrice is a pointer so enrichment can tell "absent" apart
// from an actual zero and apply the -1 sentinel.
type CollectibleItem struct {
	AssetID            int64  `json:"assetId"`
	Name               string `json:"name"`
	RecentAveragePrice *int64 `json:"recentAveragePrice,omitempty"`
	RAP                int64  `json:"rap"`
	Value              int64  `json:"value"`
}

// CatalogEntry represents one limited item type in the Rolimon's value catalog.
type CatalogEntry struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	RAP   int64  `json:"rap"`
	Value int64  `json:"value"`
}

// TradeAdRequest is the inbound payload for posting a trade ad. Item id lists
// and tags are forwarded to Rolimon's verbatim; empty lists are valid.
type TradeAdRequest struct {
	PlayerID       int64    `json:"player_id"`
	OfferItemIDs   []int64  `json:"offer_item_ids"`
	RequestItemIDs []int64  `json:"request_item_ids"`
	RequestTags    []string `json:"request_tags"`
}

// TradeAdRecord is the local history row kept for each successfully posted ad.
// Advisory only: the Redis cache stays the sole owner of catalog and
// credential state.
type TradeAdRecord struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PlayerID       int64     `json:"player_id" gorm:"index;not null"`
	OfferItemIDs   string    `json:"offer_item_ids"`
	RequestItemIDs string    `json:"request_item_ids"`
	RequestTags    string    `json:"request_tags"`
	CreatedAt      time.Time `json:"created_at"`
}
