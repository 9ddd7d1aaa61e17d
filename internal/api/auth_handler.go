package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/roster/internal/infrastructure/jwt"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(subject string) (string, error)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Password string `binding:"required" json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}

// AuthHandler exchanges the operator password for a bearer token.
type AuthHandler struct {
	password []byte
	issuer   TokenIssuer
	log      logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(password string, issuer TokenIssuer, log logger.Logger) *AuthHandler {
	return &AuthHandler{password: []byte(password), issuer: issuer, log: log}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), h.password) != 1 {
		logger.FromContext(c.Request.Context(), h.log).Warn("Rejected login attempt",
			logger.String("client_ip", c.ClientIP()),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.issuer.GenerateToken(jwt.DefaultSubject)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token})
}
