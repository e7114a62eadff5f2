package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gemcase-backend/internal/models"
	"gemcase-backend/internal/services"
)

type AuthHandler struct {
	engine       *services.Engine
	redisService *services.RedisService
	jwtService   *services.JWTService
	apiSecret    string
	sessionTTL   time.Duration
}

func NewAuthHandler(engine *services.Engine, redisService *services.RedisService, jwtService *services.JWTService, apiSecret string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		engine:       engine,
		redisService: redisService,
		jwtService:   jwtService,
		apiSecret:    apiSecret,
		sessionTTL:   sessionTTL,
	}
}

// CreateSession is called by the trusted login frontend after it has verified
// the Steam identity. It upserts the account and issues a JWT bound to a fresh
// Redis session.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	if h.apiSecret != "" {
		provided := c.GetHeader("X-Api-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.apiSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API secret"})
			return
		}
	}

	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.engine.EnsureAccount(c.Request.Context(), req.SteamID, req.DisplayName, req.Avatar)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	sessionID := uuid.New().String()
	session := &models.Session{
		UserID:       account.ID,
		SessionID:    sessionID,
		SteamID:      account.SteamID,
		DisplayName:  account.DisplayName,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	if err := h.redisService.StoreSession(session, h.sessionTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store session"})
		return
	}

	token, err := h.jwtService.GenerateToken(account.ID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"account": account,
	})
}
