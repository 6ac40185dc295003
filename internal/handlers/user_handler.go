package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-agenda/internal/models"
	"github.com/harentsoaR/clinic-agenda/internal/store"
	"github.com/harentsoaR/clinic-agenda/internal/utils"
)

type createUserRequest struct {
	Name     string            `json:"name" binding:"required"`
	Email    string            `json:"email" binding:"required,email"`
	Password string            `json:"password" binding:"required,min=8"`
	Role     models.Role       `json:"role" binding:"required"`
	Status   models.UserStatus `json:"status"`
}

type updateUserRequest struct {
	Name     *string            `json:"name,omitempty"`
	Email    *string            `json:"email,omitempty" binding:"omitempty,email"`
	Password *string            `json:"password,omitempty" binding:"omitempty,min=8"`
	Role     *models.Role       `json:"role,omitempty"`
	Status   *models.UserStatus `json:"status,omitempty"`
}

type UserSummary struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Doctors     int `json:"doctors"`
	Secretaries int `json:"secretaries"`
	Owners      int `json:"owners"`
}

func validUserStatus(s models.UserStatus) bool {
	return s == models.UserActive || s == models.UserInactive
}

// GetUsers lists staff accounts, optionally by ?role= and ?status=.
func (h *Handler) GetUsers(c *gin.Context) {
	filter := store.UserFilter{
		Role:   models.Role(strings.ToUpper(c.Query("role"))),
		Status: models.UserStatus(c.Query("status")),
	}
	users, err := h.Store.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Failed to retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUserSummary(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context(), store.UserFilter{})
	if err != nil {
		h.fail(c, err, "Failed to retrieve users")
		return
	}
	var s UserSummary
	for _, u := range users {
		s.Total++
		if u.Status == models.UserActive {
			s.Active++
		} else {
			s.Inactive++
		}
		switch u.Role {
		case models.RoleDoctor:
			s.Doctors++
		case models.RoleSecretary:
			s.Secretaries++
		case models.RoleOwner:
			s.Owners++
		}
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = models.UserActive
	}
	if !req.Role.Valid() || !validUserStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role or status"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err, "Failed to hash password")
		return
	}
	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalizeEmail(req.Email),
		Password: hashedPassword,
		Role:     req.Role,
		Status:   req.Status,
	}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		h.fail(c, err, "User with this email")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.GetUser(ctx, id)
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	// no self demotion or deactivation
	if id == v.UserID && ((req.Role != nil && *req.Role != user.Role) || (req.Status != nil && *req.Status != user.Status)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot change your own role or status"})
		return
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if !user.Role.Valid() || !validUserStatus(user.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role or status"})
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
		h.fail(c, err, "User with this email")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	if id == v.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}
	if err := h.Store.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
