package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roblox-trader/internal/errs"
	"roblox-trader/internal/models"
	"roblox-trader/internal/services/trading"
)

// TradingAPI is what the handlers need from the trading service.
type TradingAPI interface {
	GetEnrichedInventory(ctx context.Context, username string) (*trading.InventoryResult, error)
	PostTradeAd(ctx context.Context, req models.TradeAdRequest) (json.RawMessage, int, error)
	GetRecentTradeAds(limit int) ([]models.TradeAdRecord, error)
}

// RolimonsAPI is what the handlers need from the Rolimon's service.
type RolimonsAPI interface {
	GetItemDetails(ctx context.Context) ([]models.CatalogEntry, string, error)
	GetPhrase(ctx context.Context, playerID int64) (json.RawMessage, int, error)
	VerifyPhrase(ctx context.Context, playerID int64) (json.RawMessage, int, error)
}

type APIHandler struct {
	tradingService  TradingAPI
	rolimonsService RolimonsAPI
}

func SetupRoutes(r *gin.RouterGroup, trading TradingAPI, rolimons RolimonsAPI) {
	handler := &APIHandler{
		tradingService:  trading,
		rolimonsService: rolimons,
	}

	r.GET("/api/get-inventory/:username", handler.GetInventory)
	r.GET("/get-all-limiteds", handler.GetAllLimiteds)
	r.GET("/api/get-phrase/:user_id", handler.GetPhrase)
	r.POST("/api/verify-phrase/:user_id", handler.VerifyPhrase)
	r.POST("/api/post-trade-ad", handler.PostTradeAd)
	r.GET("/api/trade-ads", handler.GetTradeAds)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrVerificationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *APIHandler) GetInventory(c *gin.Context) {
	username := c.Param("username")

	result, err := h.tradingService.GetEnrichedInventory(c.Request.Context(), username)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     result.Items,
		"message":  result.Message,
		"user_id":  result.UserID,
		"username": result.Username,
	})
}

func (h *APIHandler) GetAllLimiteds(c *gin.Context) {
	entries, source, err := h.rolimonsService.GetItemDetails(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Name < entries[b].Name
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"message": "Fetched " + strconv.Itoa(len(entries)) + " items.",
		"source":  source,
	})
}

func (h *APIHandler) GetPhrase(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	body, status, err := h.rolimonsService.GetPhrase(c.Request.Context(), playerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.Data(status, "application/json", body)
}

func (h *APIHandler) VerifyPhrase(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return
	}

	body, status, err := h.rolimonsService.VerifyPhrase(c.Request.Context(), playerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.Data(status, "application/json", body)
}

func (h *APIHandler) PostTradeAd(c *gin.Context) {
	var req models.TradeAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	body, status, err := h.tradingService.PostTradeAd(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.Data(status, "application/json", body)
}

func (h *APIHandler) GetTradeAds(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.tradingService.GetRecentTradeAds(limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "trade_ads": records})
}
