package handlers

import (
	"net/http"
	"strconv"

	"pizza-backend/authz"
	"pizza-backend/middleware"
	"pizza-backend/models"
	"pizza-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserHandler struct {
	DB *gorm.DB
}

// pageParams reads zero-based page and limit query parameters.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 0 {
		page = 0
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// Me handles GET /api/user/me.
func (h *UserHandler) Me(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	var user models.User
	if err := h.DB.Preload("Roles").Where("id = ?", caller.ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /api/user. Any authenticated caller may list users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	// Fetch one extra row to learn whether another page exists.
	var users []models.User
	if err := h.DB.Preload("Roles").Order("created_at").
		Offset(page * limit).Limit(limit + 1).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch users"})
		return
	}

	more := len(users) > limit
	if more {
		users = users[:limit]
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"more":  more,
	})
}

// UpdateUser handles PUT /api/user/:id. Self or admin only. A fresh token
// reflecting the updated claims is returned; previously issued tokens stay
// valid until they expire or are logged out.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}

	if !authz.CanMutateUser(caller, targetID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
		return
	}

	var user models.User
	if err := h.DB.Preload("Roles").Where("id = ?", targetID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": utils.SanitizeValidationError(err)})
		return
	}

	if req.Email != nil && *req.Email != user.Email {
		var existing models.User
		if err := h.DB.Where("email = ? AND id <> ?", *req.Email, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
			return
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to hash password"})
			return
		}
		user.Password = string(hashedPassword)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update user"})
		return
	}

	token, err := issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

// DeleteUser handles DELETE /api/user/:id. Self or admin only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}

	if !authz.CanDeleteUser(caller, targetID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", targetID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
