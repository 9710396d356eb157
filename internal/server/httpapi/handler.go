// Package httpapi exposes the auth operations over HTTP/JSON using gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the business API the handlers call.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*services.AccessToken, error)
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type userResponse struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type tokenResponse struct {
	ID                    int64    `json:"id"`
	Email                 string   `json:"email"`
	Roles                 []string `json:"roles"`
	AccessToken           string   `json:"accessToken"`
	AccessTokenExpiresIn  int64    `json:"accessTokenExpiresIn"`
	RefreshToken          string   `json:"refreshToken"`
	RefreshTokenExpiresIn int64    `json:"refreshTokenExpiresIn"`
}

type accessTokenResponse struct {
	AccessToken          string `json:"accessToken"`
	AccessTokenExpiresIn int64  `json:"accessTokenExpiresIn"`
}

type Handler struct {
	auth AuthService
}

func NewHandler(a AuthService) *Handler {
	return &Handler{auth: a}
}

func (h *Handler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Roles: nonNil(user.Roles)})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		ID:                    pair.UserID,
		Email:                 pair.Email,
		Roles:                 nonNil(pair.Roles),
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresIn:  pair.AccessTokenExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshTokenExpiresIn,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	token, err := h.auth.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: token.Token, AccessTokenExpiresIn: token.ExpiresIn})
}

// Me echoes the principal placed in the request context by Authenticate.
func (h *Handler) Me(c *gin.Context) {
	p, ok := auth.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: p.UserID, Email: p.Email, Roles: nonNil(p.Roles)})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
