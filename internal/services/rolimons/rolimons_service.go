package rolimons

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"roblox-trader/internal/cache"
	"roblox-trader/internal/config"
	"roblox-trader/internal/errs"
	"roblox-trader/internal/models"
)

const (
	catalogCacheKey = "rolimons_item_details"

	// VerificationCookieName is the session cookie Rolimon's sets once the
	// phrase handshake succeeds.
	VerificationCookieName = "_RoliVerification"
)

// Where the catalog data came from on a given call.
const (
	SourceCache  = "cache"
	SourceOrigin = "origin"
)

func credentialKey(playerID int64) string {
	return fmt.Sprintf("user_cookie:%d", playerID)
}

// RolimonsService talks to Rolimon's item catalog, phrase verification and
// trade ad APIs. The shared cache holds the catalog snapshot and the
// per-player verification cookies; everything else is request-scoped.
type RolimonsService struct {
	client        *resty.Client
	siteBaseURL   string
	apiBaseURL    string
	cache         cache.Cache
	catalogTTL    time.Duration
	credentialTTL time.Duration
}

func NewRolimonsService(cfg config.RolimonsConfig, cacheCfg config.CacheConfig, kv cache.Cache) *RolimonsService {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", "RobloxTrader/1.0")

	return &RolimonsService{
		client:        client,
		siteBaseURL:   cfg.SiteBaseURL,
		apiBaseURL:    cfg.APIBaseURL,
		cache:         kv,
		catalogTTL:    cacheCfg.CatalogTTL,
		credentialTTL: cacheCfg.CredentialTTL,
	}
}

// GetItemDetails returns the full limited item catalog, serving from the
// cache when a fresh snapshot exists. The cache is advisory on this path: a
// read failure counts as a miss and a write failure is only logged, the
// freshly fetched catalog is returned either way.
func (s *RolimonsService) GetItemDetails(ctx context.Context) ([]models.CatalogEntry, string, error) {
	cached, err := s.cache.Get(ctx, catalogCacheKey)
	if err == nil {
		var entries []models.CatalogEntry
		uerr := json.Unmarshal(cached, &entries)
		if uerr == nil {
			return entries, SourceCache, nil
		}
		logrus.WithError(uerr).Warn("discarding undecodable catalog snapshot")
	} else if err != cache.ErrMiss {
		logrus.WithError(err).Warn("catalog cache read failed, falling through to origin")
	}

	entries, err := s.fetchCatalog(ctx)
	if err != nil {
		return nil, "", err
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := s.cache.Set(ctx, catalogCacheKey, data, s.catalogTTL); err != nil {
			logrus.WithError(err).Warn("catalog cache write failed")
		}
	}

	return entries, SourceOrigin, nil
}

// fetchCatalog pulls the item detail dump and flattens its id-indexed arrays
// into catalog entries, dropping anything structurally invalid.
func (s *RolimonsService) fetchCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	url := fmt.Sprintf("%s/itemapi/itemdetails", s.siteBaseURL)

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errs.Upstream("rolimons catalog", err)
	}
	if resp.IsError() {
		return nil, errs.UpstreamStatus("rolimons catalog", resp.StatusCode(), resp.Body())
	}

	var result struct {
		Success bool                     `json:"success"`
		Items   map[string][]interface{} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, errs.Upstream("rolimons catalog", err)
	}
	if !result.Success {
		return nil, &errs.UpstreamError{Service: "rolimons catalog", Detail: "response not marked successful"}
	}

	entries := make([]models.CatalogEntry, 0, len(result.Items))
	for idStr, details := range result.Items {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || len(details) < 4 {
			continue
		}
		name, ok := details[0].(string)
		if !ok {
			continue
		}
		rap, ok := details[2].(float64)
		if !ok {
			continue
		}
		value, ok := details[3].(float64)
		if !ok {
			continue
		}
		entries = append(entries, models.CatalogEntry{
			ID:    id,
			Name:  name,
			RAP:   int64(rap),
			Value: int64(value),
		})
	}

	logrus.WithField("items", len(entries)).Info("fetched catalog from rolimons")
	return entries, nil
}

// GetPhrase asks Rolimon's for the secret phrase the player must place in
// their profile. Body and status are passed through untouched.
func (s *RolimonsService) GetPhrase(ctx context.Context, playerID int64) (json.RawMessage, int, error) {
	url := fmt.Sprintf("%s/auth/v1/getphrase/%d", s.apiBaseURL, playerID)

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, 0, errs.Upstream("rolimons auth", err)
	}
	if resp.IsError() {
		return nil, 0, errs.UpstreamStatus("rolimons auth", resp.StatusCode(), resp.Body())
	}

	return resp.Body(), resp.StatusCode(), nil
}

// VerifyPhrase asks Rolimon's to check the phrase and captures the session
// cookie from a successful response, storing it under the player's ID with a
// 24 hour lifetime. A success response with no cookie means the handshake
// produced nothing usable and the player has to start over.
func (s *RolimonsService) VerifyPhrase(ctx context.Context, playerID int64) (json.RawMessage, int, error) {
	url := fmt.Sprintf("%s/auth/v1/verifyphrase/%d", s.apiBaseURL, playerID)

	resp, err := s.client.R().SetContext(ctx).Post(url)
	if err != nil {
		return nil, 0, errs.Upstream("rolimons auth", err)
	}
	if resp.IsError() {
		return nil, 0, errs.UpstreamStatus("rolimons auth", resp.StatusCode(), resp.Body())
	}

	token := ""
	for _, c := range resp.Cookies() {
		if c.Name == VerificationCookieName {
			token = c.Value
			break
		}
	}
	if token == "" {
		return nil, 0, errs.ErrVerificationFailed
	}

	if err := s.cache.Set(ctx, credentialKey(playerID), []byte(token), s.credentialTTL); err != nil {
		return nil, 0, fmt.Errorf("%w: storing credential: %v", errs.ErrCacheUnavailable, err)
	}

	logrus.WithField("player_id", playerID).Info("verification cookie stored")
	return resp.Body(), resp.StatusCode(), nil
}

// PostTradeAd submits a trade ad on the player's behalf using the stored
// verification cookie. A missing or expired cookie is the user-recoverable
// Unauthenticated condition; the origin is never called in that case. A cache
// transport failure is hard here, there is no other way to rebuild the
// credential.
func (s *RolimonsService) PostTradeAd(ctx context.Context, req models.TradeAdRequest) (json.RawMessage, int, error) {
	token, err := s.cache.Get(ctx, credentialKey(req.PlayerID))
	if err != nil {
		if err == cache.ErrMiss {
			return nil, 0, errs.ErrUnauthenticated
		}
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrCacheUnavailable, err)
	}

	payload := map[string]interface{}{
		"player_id":        req.PlayerID,
		"offer_item_ids":   emptyIfNilInt64(req.OfferItemIDs),
		"request_item_ids": emptyIfNilInt64(req.RequestItemIDs),
		"request_tags":     emptyIfNilString(req.RequestTags),
	}

	url := fmt.Sprintf("%s/tradeads/v1/createad", s.apiBaseURL)
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Cookie", fmt.Sprintf("%s=%s", VerificationCookieName, string(token))).
		SetBody(payload).
		Post(url)

	if err != nil {
		return nil, 0, errs.Upstream("rolimons tradeads", err)
	}
	if resp.IsError() {
		return nil, 0, errs.UpstreamStatus("rolimons tradeads", resp.StatusCode(), resp.Body())
	}

	return resp.Body(), resp.StatusCode(), nil
}

func emptyIfNilInt64(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func emptyIfNilString(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
