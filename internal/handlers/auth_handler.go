package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/store"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a signed token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.UserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to log in")
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if user.Status != models.UserActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		return
	}

	token, err := h.JWT.GenerateJWT(user.ID.Hex(), string(user.Role))
	if err != nil {
		h.fail(c, err, "Could not generate token")
		return
	}

	now := h.Now().UTC()
	if err := h.Store.TouchLastLogin(ctx, user.ID, now); err != nil {
		h.Log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("could not record last login")
	} else {
		user.LastLogin = &now
	}

	h.Log.WithField("user_id", user.ID.Hex()).Info("user logged in")
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(h.JWT.TTL().Seconds()),
		"user":      user,
	})
}

// GetCurrentUser returns the profile of the authenticated caller.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), v.UserID)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateMeRequest struct {
	Name            *string `json:"name,omitempty"`
	Password        *string `json:"password,omitempty" binding:"omitempty,min=8"`
	CurrentPassword string  `json:"currentPassword"`
}

// UpdateCurrentUser lets any signed-in user change their own name or
// password. A new password needs the current one.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil && req.Password == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.GetUser(ctx, v.UserID)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		user.Name = name
	}
	if req.Password != nil && !utils.CheckPasswordHash(req.CurrentPassword, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}
	// an empty password keeps the stored hash
	user.Password = ""
	if req.Password != nil {
		if user.Password, err = utils.HashPassword(*req.Password); err != nil {
			h.fail(c, err, "Failed to hash password")
			return
		}
	}

	if err := h.Store.UpdateUser(ctx, user); err != nil {
		h.fail(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
