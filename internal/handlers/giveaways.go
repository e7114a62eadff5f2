package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gemcase-backend/internal/economy"
	"gemcase-backend/internal/models"
	"gemcase-backend/internal/services"
)

type GiveawayHandler struct {
	engine *services.Engine
}

func NewGiveawayHandler(engine *services.Engine) *GiveawayHandler {
	return &GiveawayHandler{engine: engine}
}

func (h *GiveawayHandler) ListGiveaways(c *gin.Context) {
	giveaways, err := h.engine.Giveaways(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load giveaways"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"giveaways":       giveaways,
		"entry_cost_gems": economy.FormatGems(services.GiveawayEntryCostCents),
	})
}

func (h *GiveawayHandler) EnterGiveaway(c *gin.Context) {
	userID := c.GetInt64("user_id")

	giveawayID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid giveaway id"})
		return
	}

	var req models.GiveawayEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.EnterGiveaway(c.Request.Context(), userID, giveawayID, req.Entries)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGiveawayNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Giveaway not found"})
		case errors.Is(err, services.ErrGiveawayNotLive):
			c.JSON(http.StatusConflict, gin.H{"error": "Giveaway is not live"})
		case errors.Is(err, services.ErrTierLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Reward pool tier too low"})
		case errors.Is(err, services.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Not enough gems"})
		case errors.Is(err, services.ErrBadEntries):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry count"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enter giveaway"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
