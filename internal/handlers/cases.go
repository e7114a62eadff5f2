package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gemcase-backend/internal/models"
	"gemcase-backend/internal/services"
)

type CaseHandler struct {
	engine       *services.Engine
	redisService *services.RedisService
}

func NewCaseHandler(engine *services.Engine, redisService *services.RedisService) *CaseHandler {
	return &CaseHandler{engine: engine, redisService: redisService}
}

func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.engine.Cases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func (h *CaseHandler) GetCase(c *gin.Context) {
	detail, err := h.engine.CaseDetail(c.Request.Context(), c.Param("slug"), time.Now())
	if err != nil {
		if errors.Is(err, services.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load case"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CaseHandler) OpenCase(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, err := h.engine.Open(c.Request.Context(), userID, c.Param("slug"), req.ClientSeed)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadClientSeed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		case errors.Is(err, services.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Not enough gems"})
		case errors.Is(err, services.ErrCaseEmpty):
			c.JSON(http.StatusConflict, gin.H{"error": "Case has no outcomes"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open case"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CaseHandler) VerifyOpen(c *gin.Context) {
	openID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid open id"})
		return
	}

	report, err := h.engine.Verify(c.Request.Context(), openID)
	if err != nil {
		if errors.Is(err, services.ErrOpeningNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Opening not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *CaseHandler) GetActiveEvents(c *gin.Context) {
	events, err := h.engine.ActiveEvents(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *CaseHandler) GetPoolStatus(c *gin.Context) {
	status, err := h.engine.PoolStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pool"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *CaseHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	rows, err := h.engine.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

func (h *CaseHandler) GetRecentDrops(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	drops, err := h.redisService.RecentDrops(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load drops"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drops": drops})
}
