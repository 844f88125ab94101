package handlers

import (
	"net/http"

	"pizza-backend/authz"
	"pizza-backend/middleware"
	"pizza-backend/models"
	"pizza-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FranchiseHandler struct {
	DB *gorm.DB
}

type adminRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type franchiseResponse struct {
	models.Franchise
	Admins []adminRef `json:"admins"`
}

// loadAdmins returns the current admin list for each franchise, read from
// the role grants rather than token claims.
func (h *FranchiseHandler) loadAdmins(franchiseIDs []uuid.UUID) (map[uuid.UUID][]adminRef, error) {
	result := make(map[uuid.UUID][]adminRef)
	if len(franchiseIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		FranchiseID uuid.UUID
		ID          uuid.UUID
		Name        string
		Email       string
	}
	err := h.DB.Table("user_roles").
		Select("user_roles.franchise_id, users.id, users.name, users.email").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("user_roles.role = ? AND user_roles.franchise_id IN ? AND users.deleted_at IS NULL",
			models.RoleFranchisee, franchiseIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.FranchiseID] = append(result[r.FranchiseID], adminRef{ID: r.ID, Name: r.Name, Email: r.Email})
	}
	return result, nil
}

func (h *FranchiseHandler) toResponses(franchises []models.Franchise) ([]franchiseResponse, error) {
	ids := make([]uuid.UUID, len(franchises))
	for i, f := range franchises {
		ids[i] = f.ID
	}

	adminMap, err := h.loadAdmins(ids)
	if err != nil {
		return nil, err
	}

	result := make([]franchiseResponse, 0, len(franchises))
	for _, f := range franchises {
		admins := adminMap[f.ID]
		if admins == nil {
			admins = []adminRef{}
		}
		if f.Stores == nil {
			f.Stores = []models.Store{}
		}
		result = append(result, franchiseResponse{Franchise: f, Admins: admins})
	}
	return result, nil
}

// ListFranchises handles GET /api/franchise. Public, paginated.
func (h *FranchiseHandler) ListFranchises(c *gin.Context) {
	page, limit := pageParams(c)

	var franchises []models.Franchise
	if err := h.DB.Preload("Stores").Order("created_at").
		Offset(page * limit).Limit(limit + 1).Find(&franchises).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch franchises"})
		return
	}

	more := len(franchises) > limit
	if more {
		franchises = franchises[:limit]
	}

	result, err := h.toResponses(franchises)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch franchises"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"franchises": result,
		"more":       more,
	})
}

// GetUserFranchises handles GET /api/franchise/:id, where :id is a user id.
// Returns the franchises that user administers. Self or admin only.
func (h *FranchiseHandler) GetUserFranchises(c *gin.Context) {
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

	if !authz.CanViewUserFranchises(caller, targetID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
		return
	}

	var grants []models.UserRole
	if err := h.DB.Where("user_id = ? AND role = ?", targetID, models.RoleFranchisee).Find(&grants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch franchises"})
		return
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		if g.FranchiseID != nil {
			ids = append(ids, *g.FranchiseID)
		}
	}

	franchises := []models.Franchise{}
	if len(ids) > 0 {
		if err := h.DB.Preload("Stores").Where("id IN ?", ids).Find(&franchises).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch franchises"})
			return
		}
	}

	result, err := h.toResponses(franchises)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch franchises"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateFranchise handles POST /api/franchise. Admin only (route-gated);
// the listed admins receive a franchisee grant for the new franchise.
func (h *FranchiseHandler) CreateFranchise(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Admins []struct {
			Email string `json:"email" binding:"required,email"`
		} `json:"admins"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": utils.SanitizeValidationError(err)})
		return
	}

	var existing models.Franchise
	if err := h.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "franchise name already exists"})
		return
	}

	// Resolve every admin email before creating anything.
	adminUsers := make([]models.User, 0, len(req.Admins))
	for _, a := range req.Admins {
		var user models.User
		if err := h.DB.Where("email = ?", a.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown user for franchise admin: " + a.Email})
			return
		}
		adminUsers = append(adminUsers, user)
	}

	franchise := models.Franchise{ID: uuid.New(), Name: req.Name}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&franchise).Error; err != nil {
			return err
		}
		for _, user := range adminUsers {
			fid := franchise.ID
			grant := models.UserRole{UserID: user.ID, Role: models.RoleFranchisee, FranchiseID: &fid}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create franchise"})
		return
	}

	admins := make([]adminRef, 0, len(adminUsers))
	for _, u := range adminUsers {
		admins = append(admins, adminRef{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	franchise.Stores = []models.Store{}
	c.JSON(http.StatusOK, franchiseResponse{Franchise: franchise, Admins: admins})
}

// DeleteFranchise handles DELETE /api/franchise/:id. Admin only
// (route-gated). Cascades to stores and franchisee grants.
func (h *FranchiseHandler) DeleteFranchise(c *gin.Context) {
	franchiseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}

	var franchise models.Franchise
	if err := h.DB.Where("id = ?", franchiseID).First(&franchise).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "franchise not found"})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("franchise_id = ?", franchise.ID).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("franchise_id = ? AND role = ?", franchise.ID, models.RoleFranchisee).
			Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&franchise).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete franchise"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
}

// CreateStore handles POST /api/franchise/:id/store. Platform admins and
// that franchise's admins only.
func (h *FranchiseHandler) CreateStore(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	franchiseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}

	var franchise models.Franchise
	if err := h.DB.Where("id = ?", franchiseID).First(&franchise).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "franchise not found"})
		return
	}

	adminIDs, err := h.franchiseAdminIDs(franchise.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create store"})
		return
	}

	if !authz.CanManageStore(caller, franchise.ID, adminIDs) {
		c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": utils.SanitizeValidationError(err)})
		return
	}

	store := models.Store{FranchiseID: franchise.ID, Name: req.Name}
	if err := h.DB.Create(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create store"})
		return
	}

	c.JSON(http.StatusOK, store)
}

// DeleteStore handles DELETE /api/franchise/:id/store/:storeId. Platform
// admins and that franchise's admins only.
func (h *FranchiseHandler) DeleteStore(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	franchiseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}
	storeID, err := uuid.Parse(c.Param("storeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid store id"})
		return
	}

	var franchise models.Franchise
	if err := h.DB.Where("id = ?", franchiseID).First(&franchise).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "franchise not found"})
		return
	}

	adminIDs, err := h.franchiseAdminIDs(franchise.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete store"})
		return
	}

	if !authz.CanManageStore(caller, franchise.ID, adminIDs) {
		c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
		return
	}

	var store models.Store
	if err := h.DB.Where("id = ? AND franchise_id = ?", storeID, franchise.ID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "store not found"})
		return
	}

	if err := h.DB.Delete(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

func (h *FranchiseHandler) franchiseAdminIDs(franchiseID uuid.UUID) ([]uuid.UUID, error) {
	var grants []models.UserRole
	if err := h.DB.Where("franchise_id = ? AND role = ?", franchiseID, models.RoleFranchisee).
		Find(&grants).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(grants))
	for i, g := range grants {
		ids[i] = g.UserID
	}
	return ids, nil
}
