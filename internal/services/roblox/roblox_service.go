package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"roblox-trader/internal/config"
	"roblox-trader/internal/errs"
	"roblox-trader/internal/models"
)

const inventoryPageLimit = 100

// RobloxService talks to the Roblox users and inventory APIs.
type RobloxService struct {
	client           *resty.Client
	usersBaseURL     string
	inventoryBaseURL string
	pageDelay        time.Duration
	maxPages         int
	sleep            func(time.Duration)
}

func NewRobloxService(cfg config.RobloxConfig, fetch config.FetchConfig) *RobloxService {
	client := resty.New()
	client.SetTimeout(fetch.Timeout)
	client.SetHeader("User-Agent", "RobloxTrader/1.0")

	return &RobloxService{
		client:           client,
		usersBaseURL:     cfg.UsersBaseURL,
		inventoryBaseURL: cfg.InventoryBaseURL,
		pageDelay:        fetch.PageDelay,
		maxPages:         fetch.MaxPages,
		sleep:            time.Sleep,
	}
}

// GetUserID resolves a username to its numeric user ID, excluding banned
// accounts. A lookup that matches nobody returns errs.ErrNotFound.
func (s *RobloxService) GetUserID(ctx context.Context, username string) (int64, error) {
	url := fmt.Sprintf("%s/v1/usernames/users", s.usersBaseURL)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"usernames":          []string{username},
			"excludeBannedUsers": true,
		}).
		Post(url)

	if err != nil {
		return 0, errs.Upstream("roblox users", err)
	}
	if resp.IsError() {
		return 0, errs.UpstreamStatus("roblox users", resp.StatusCode(), resp.Body())
	}

	var result struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, errs.Upstream("roblox users", err)
	}

	if len(result.Data) == 0 {
		return 0, errs.ErrNotFound
	}

	return result.Data[0].ID, nil
}

// GetUserLimiteds fetches every limited item in a user's inventory, following
// the page cursor until the API stops supplying one. A failure on any page
// discards everything collected so far. The page cap is a hardening measure
// against an upstream that never terminates the cursor chain.
func (s *RobloxService) GetUserLimiteds(ctx context.Context, userID int64) ([]models.CollectibleItem, error) {
	allItems := []models.CollectibleItem{}
	cursor := ""

	for page := 1; ; page++ {
		if s.maxPages > 0 && page > s.maxPages {
			return nil, &errs.UpstreamError{
				Service: "roblox inventory",
				Detail:  fmt.Sprintf("page cap of %d exceeded", s.maxPages),
			}
		}

		if page > 1 && s.pageDelay > 0 {
			s.sleep(s.pageDelay)
		}

		url := fmt.Sprintf("%s/v1/users/%d/assets/collectibles", s.inventoryBaseURL, userID)
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"sortOrder": "Asc",
				"limit":     strconv.Itoa(inventoryPageLimit),
				"cursor":    cursor,
			}).
			Get(url)

		if err != nil {
			return nil, errs.Upstream("roblox inventory", err)
		}
		if resp.IsError() {
			return nil, errs.UpstreamStatus("roblox inventory", resp.StatusCode(), resp.Body())
		}

		var result struct {
			Data           []models.CollectibleItem `json:"data"`
			NextPageCursor string                   `json:"nextPageCursor"`
		}
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return nil, errs.Upstream("roblox inventory", err)
		}

		allItems = append(allItems, result.Data...)

		cursor = result.NextPageCursor
		if cursor == "" {
			break
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"items":   len(allItems),
	}).Debug("inventory fetch complete")

	return allItems, nil
}
