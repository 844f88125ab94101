package handlers

import (
	"net/http"

	"pizza-backend/middleware"
	"pizza-backend/models"
	"pizza-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

// GetMenu handles GET /api/order/menu. Public; returns a bare array.
func (h *OrderHandler) GetMenu(c *gin.Context) {
	menu := []models.MenuItem{}
	if err := h.DB.Order("created_at").Find(&menu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch menu"})
		return
	}

	c.JSON(http.StatusOK, menu)
}

// AddMenuItem handles PUT /api/order/menu. Admin only (route-gated).
// Returns the full updated menu.
func (h *OrderHandler) AddMenuItem(c *gin.Context) {
	var req struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Image       string  `json:"image"`
		Price       float64 `json:"price" binding:"gte=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": utils.SanitizeValidationError(err)})
		return
	}

	item := models.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
	}

	if err := h.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to add menu item"})
		return
	}

	menu := []models.MenuItem{}
	if err := h.DB.Order("created_at").Find(&menu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch menu"})
		return
	}

	c.JSON(http.StatusOK, menu)
}

// GetOrders handles GET /api/order. Returns the caller's orders, paginated.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	page, limit := pageParams(c)

	var orders []models.Order
	if err := h.DB.Preload("Items").Where("user_id = ?", caller.ID).
		Order("created_at DESC").Offset(page * limit).Limit(limit + 1).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch orders"})
		return
	}

	more := len(orders) > limit
	if more {
		orders = orders[:limit]
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"more":   more,
	})
}

// CreateOrder handles POST /api/order. The order belongs to the caller;
// each line item snapshots the requested description and price so later
// menu edits never change the order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
		return
	}

	var req struct {
		FranchiseID string `json:"franchiseId" binding:"required"`
		StoreID     string `json:"storeId" binding:"required"`
		Items       []struct {
			MenuID      string  `json:"menuId" binding:"required"`
			Description string  `json:"description"`
			Price       float64 `json:"price" binding:"gte=0"`
		} `json:"items" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": utils.SanitizeValidationError(err)})
		return
	}

	franchiseID, err := uuid.Parse(req.FranchiseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid store id"})
		return
	}

	var franchise models.Franchise
	if err := h.DB.Where("id = ?", franchiseID).First(&franchise).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "franchise not found"})
		return
	}

	var store models.Store
	if err := h.DB.Where("id = ? AND franchise_id = ?", storeID, franchiseID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "store not found"})
		return
	}

	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		menuID, err := uuid.Parse(item.MenuID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid menu item id"})
			return
		}

		var menuItem models.MenuItem
		if err := h.DB.Where("id = ?", menuID).First(&menuItem).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "menu item not found"})
			return
		}

		items = append(items, models.OrderItem{
			OrderID:     orderID,
			MenuItemID:  menuItem.ID,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	order := models.Order{
		ID:          orderID,
		UserID:      caller.ID,
		FranchiseID: franchise.ID,
		StoreID:     store.ID,
		Items:       items,
	}

	if err := h.DB.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
