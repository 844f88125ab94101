package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Auth        string `json:"auth"`
}

var endpoints = []endpointDoc{
	{"POST", "/api/auth", "Register a new user", "none"},
	{"PUT", "/api/auth", "Login an existing user", "none"},
	{"DELETE", "/api/auth", "Logout and revoke the presented token", "token"},
	{"GET", "/api/user/me", "Get the authenticated user", "token"},
	{"GET", "/api/user", "List users", "token"},
	{"PUT", "/api/user/:id", "Update a user", "self or admin"},
	{"DELETE", "/api/user/:id", "Delete a user", "self or admin"},
	{"GET", "/api/franchise", "List franchises", "none"},
	{"GET", "/api/franchise/:id", "List the franchises a user administers", "self or admin"},
	{"POST", "/api/franchise", "Create a franchise", "admin"},
	{"DELETE", "/api/franchise/:id", "Delete a franchise", "admin"},
	{"POST", "/api/franchise/:id/store", "Create a store", "admin or franchise admin"},
	{"DELETE", "/api/franchise/:id/store/:storeId", "Delete a store", "admin or franchise admin"},
	{"GET", "/api/order/menu", "Get the pizza menu", "none"},
	{"PUT", "/api/order/menu", "Add a menu item", "admin"},
	{"GET", "/api/order", "Get the caller's orders", "token"},
	{"POST", "/api/order", "Create an order", "token"},
}

// Docs handles GET /api/docs.
func Docs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"endpoints": endpoints})
}
