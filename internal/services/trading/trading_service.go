package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roblox-trader/internal/models"
)

// InventoryAPI is the slice of the Roblox service the trading flow needs.
type InventoryAPI interface {
	GetUserID(ctx context.Context, username string) (int64, error)
	GetUserLimiteds(ctx context.Context, userID int64) ([]models.CollectibleItem, error)
}

// CatalogAPI is the slice of the Rolimon's service the trading flow needs.
type CatalogAPI interface {
	GetItemDetails(ctx context.Context) ([]models.CatalogEntry, string, error)
	PostTradeAd(ctx context.Context, req models.TradeAdRequest) (json.RawMessage, int, error)
}

// TradingService drives the enriched-inventory flow and ad posting, and keeps
// a local history of posted ads.
type TradingService struct {
	db       *gorm.DB
	roblox   InventoryAPI
	rolimons CatalogAPI
}

func NewTradingService(db *gorm.DB, roblox InventoryAPI, rolimons CatalogAPI) *TradingService {
	return &TradingService{
		db:       db,
		roblox:   roblox,
		rolimons: rolimons,
	}
}

// InventoryResult is the payload for a resolved, enriched inventory.
type InventoryResult struct {
	UserID   int64                    `json:"user_id"`
	Username string                   `json:"username"`
	Items    []models.CollectibleItem `json:"data"`
	Message  string                   `json:"message"`
}

// GetEnrichedInventory resolves the username, fetches the full inventory and
// annotates each item with its catalog value. Identity and inventory failures
// short-circuit; a catalog failure does not fail the request, the items just
// carry -1 sentinels.
func (t *TradingService) GetEnrichedInventory(ctx context.Context, username string) (*InventoryResult, error) {
	userID, err := t.roblox.GetUserID(ctx, username)
	if err != nil {
		return nil, err
	}

	items, err := t.roblox.GetUserLimiteds(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, _, err := t.rolimons.GetItemDetails(ctx)
	if err != nil {
		logrus.WithError(err).Warn("catalog unavailable, returning unvalued inventory")
		catalog = nil
	}

	return &InventoryResult{
		UserID:   userID,
		Username: username,
		Items:    EnrichItems(items, catalog),
		Message:  fmt.Sprintf("Successfully fetched %d items.", len(items)),
	}, nil
}

// EnrichItems joins inventory items against the catalog. Each item gets its
// own recent average price under RAP (-1 when the API omitted it) and the
// catalog value under Value (-1 when the asset has no catalog entry). The
// result is sorted by item name, ascending, ties keeping their input order.
// Pure and idempotent.
func EnrichItems(items []models.CollectibleItem, catalog []models.CatalogEntry) []models.CollectibleItem {
	byID := make(map[int64]models.CatalogEntry, len(catalog))
	for _, entry := range catalog {
		byID[entry.ID] = entry
	}

	for i := range items {
		if items[i].RecentAveragePrice != nil {
			items[i].RAP = *items[i].RecentAveragePrice
		} else {
			items[i].RAP = -1
		}

		if entry, ok := byID[items[i].AssetID]; ok {
			items[i].Value = entry.Value
		} else {
			items[i].Value = -1
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Name < items[b].Name
	})

	return items
}

// PostTradeAd forwards the ad to Rolimon's and records it locally on success.
// The history write is best effort, a database failure never fails the post.
func (t *TradingService) PostTradeAd(ctx context.Context, req models.TradeAdRequest) (json.RawMessage, int, error) {
	body, status, err := t.rolimons.PostTradeAd(ctx, req)
	if err != nil {
		return nil, status, err
	}

	if t.db != nil {
		record := models.TradeAdRecord{
			PlayerID:       req.PlayerID,
			OfferItemIDs:   joinIDs(req.OfferItemIDs),
			RequestItemIDs: joinIDs(req.RequestItemIDs),
			RequestTags:    strings.Join(req.RequestTags, ","),
		}
		if err := t.db.Create(&record).Error; err != nil {
			logrus.WithError(err).Warn("failed to record trade ad history")
		}
	}

	return body, status, nil
}

// GetRecentTradeAds returns the latest locally recorded ads, newest first.
func (t *TradingService) GetRecentTradeAds(limit int) ([]models.TradeAdRecord, error) {
	var records []models.TradeAdRecord
	err := t.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
