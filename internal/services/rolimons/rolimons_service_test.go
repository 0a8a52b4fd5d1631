package rolimons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roblox-trader/internal/cache"
	"roblox-trader/internal/config"
	"roblox-trader/internal/errs"
	"roblox-trader/internal/models"
)

type fakeCache struct {
	store  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		store: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	val, ok := f.store[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.store[key] = value
	f.ttls[key] = ttl
	return nil
}

func newTestService(baseURL string, kv cache.Cache) *RolimonsService {
	return NewRolimonsService(
		config.RolimonsConfig{SiteBaseURL: baseURL, APIBaseURL: baseURL, Timeout: 2 * time.Second},
		config.CacheConfig{CatalogTTL: 900 * time.Second, CredentialTTL: 86400 * time.Second},
		kv,
	)
}

func TestGetItemDetailsOriginThenCache(t *testing.T) {
	var originCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/itemapi/itemdetails", r.URL.Path)
		originCalls++
		fmt.Fprint(w, `{"success":true,"items":{"7":["Dominus","x",500,10000]}}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	s := newTestService(srv.URL, kv)
	ctx := context.Background()

	entries, source, err := s.GetItemDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceOrigin, source)
	require.Equal(t, []models.CatalogEntry{{ID: 7, Name: "Dominus", RAP: 500, Value: 10000}}, entries)
	require.Equal(t, 900*time.Second, kv.ttls[catalogCacheKey])

	again, source, err := s.GetItemDetails(ctx)
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.Equal(t, entries, again)
	require.Equal(t, 1, originCalls)
}

func TestGetItemDetailsDropsInvalidEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"items":{
			"1":["Valid","x",10,20],
			"2":["TooShort","x"],
			"notanumber":["BadID","x",1,2],
			"3":[42,"x",1,2],
			"4":["BadValue","x",1,"zz"]
		}}`)
	}))
	defer srv.Close()

	s := newTestService(srv.URL, newFakeCache())
	entries, _, err := s.GetItemDetails(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.CatalogEntry{{ID: 1, Name: "Valid", RAP: 10, Value: 20}}, entries)
}

func TestGetItemDetailsOriginNotSuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false}`)
	}))
	defer srv.Close()

	s := newTestService(srv.URL, newFakeCache())
	_, _, err := s.GetItemDetails(context.Background())

	var upstream *errs.UpstreamError
	require.ErrorAs(t, err, &upstream)
}

func TestGetItemDetailsCacheReadFailureFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"items":{"7":["Dominus","x",500,10000]}}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	kv.getErr = errors.New("connection refused")
	s := newTestService(srv.URL, kv)

	entries, source, err := s.GetItemDetails(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceOrigin, source)
	require.Len(t, entries, 1)
}

func TestGetItemDetailsCacheWriteFailureStillReturns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"items":{"7":["Dominus","x",500,10000]}}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	kv.setErr = errors.New("connection refused")
	s := newTestService(srv.URL, kv)

	entries, source, err := s.GetItemDetails(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceOrigin, source)
	require.Len(t, entries, 1)
}

func TestGetPhrasePassesBodyAndStatusThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/v1/getphrase/9001", r.URL.Path)
		fmt.Fprint(w, `{"success":true,"phrase":"red rock runs rampant"}`)
	}))
	defer srv.Close()

	s := newTestService(srv.URL, newFakeCache())
	body, status, err := s.GetPhrase(context.Background(), 9001)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"success":true,"phrase":"red rock runs rampant"}`, string(body))
}

func TestVerifyPhraseStoresCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/verifyphrase/9001", r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: VerificationCookieName, Value: "tok123"})
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	s := newTestService(srv.URL, kv)

	body, status, err := s.VerifyPhrase(context.Background(), 9001)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"success":true}`, string(body))

	require.Equal(t, []byte("tok123"), kv.store[credentialKey(9001)])
	require.Equal(t, 86400*time.Second, kv.ttls[credentialKey(9001)])
}

func TestVerifyPhraseWithoutCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	s := newTestService(srv.URL, kv)

	_, _, err := s.VerifyPhrase(context.Background(), 9001)
	require.ErrorIs(t, err, errs.ErrVerificationFailed)
	require.NotContains(t, kv.store, credentialKey(9001))
}

func TestVerifyPhraseUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"success":false,"message":"phrase not found on profile"}`)
	}))
	defer srv.Close()

	s := newTestService(srv.URL, newFakeCache())
	_, _, err := s.VerifyPhrase(context.Background(), 9001)

	var upstream *errs.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "phrase not found on profile", upstream.Detail)
}

func TestPostTradeAdWithoutCredential(t *testing.T) {
	var originCalled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originCalled = true
	}))
	defer srv.Close()

	s := newTestService(srv.URL, newFakeCache())
	_, _, err := s.PostTradeAd(context.Background(), models.TradeAdRequest{PlayerID: 9001})

	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.False(t, originCalled)
}

func TestPostTradeAdCacheUnavailable(t *testing.T) {
	kv := newFakeCache()
	kv.getErr = errors.New("connection refused")
	s := newTestService("http://unused.invalid", kv)

	_, _, err := s.PostTradeAd(context.Background(), models.TradeAdRequest{PlayerID: 9001})
	require.ErrorIs(t, err, errs.ErrCacheUnavailable)
}

func TestPostTradeAdSendsCookieAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tradeads/v1/createad", r.URL.Path)
		require.Equal(t, VerificationCookieName+"=tok123", r.Header.Get("Cookie"))

		var payload map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.JSONEq(t, `9001`, string(payload["player_id"]))
		require.JSONEq(t, `[1,2]`, string(payload["offer_item_ids"]))
		require.JSONEq(t, `[]`, string(payload["request_item_ids"]))
		require.JSONEq(t, `["demand"]`, string(payload["request_tags"]))

		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	kv.store[credentialKey(9001)] = []byte("tok123")
	s := newTestService(srv.URL, kv)

	body, status, err := s.PostTradeAd(context.Background(), models.TradeAdRequest{
		PlayerID:     9001,
		OfferItemIDs: []int64{1, 2},
		RequestTags:  []string{"demand"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"success":true}`, string(body))

	// credential read, not consumed
	require.Contains(t, kv.store, credentialKey(9001))
}

func TestPostTradeAdUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"success":false,"message":"ad cooldown active"}`)
	}))
	defer srv.Close()

	kv := newFakeCache()
	kv.store[credentialKey(9001)] = []byte("tok123")
	s := newTestService(srv.URL, kv)

	_, _, err := s.PostTradeAd(context.Background(), models.TradeAdRequest{PlayerID: 9001})

	var upstream *errs.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	require.Equal(t, "ad cooldown active", upstream.Detail)
}
