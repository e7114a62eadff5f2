package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gemcase-backend/internal/services"
)

type UserHandler struct {
	engine       *services.Engine
	redisService *services.RedisService
}

func NewUserHandler(engine *services.Engine, redisService *services.RedisService) *UserHandler {
	return &UserHandler{engine: engine, redisService: redisService}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetInt64("user_id")

	account, err := h.engine.Account(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetInt64("user_id")
	sessionID := c.GetString("session_id")

	if err := h.redisService.DeleteSession(userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *UserHandler) GetInventory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	items, err := h.engine.Inventory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (h *UserHandler) SellHolding(c *gin.Context) {
	userID := c.GetInt64("user_id")

	holdingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid holding id"})
		return
	}

	result, err := h.engine.Sell(c.Request.Context(), userID, holdingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHoldingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		case errors.Is(err, services.ErrAlreadySold):
			c.JSON(http.StatusConflict, gin.H{"error": "Holding already sold"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sell"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) ClaimStreak(c *gin.Context) {
	userID := c.GetInt64("user_id")

	result, err := h.engine.ClaimStreak(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClaimed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Streak already claimed today"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim streak"})
		return
	}

	c.JSON(http.StatusOK, result)
}
