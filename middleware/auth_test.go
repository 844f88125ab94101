package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"pizza-backend/authz"
	"pizza-backend/models"
	"pizza-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := testDB.Exec(`CREATE TABLE IF NOT EXISTS "revoked_tokens" (
		"id" TEXT PRIMARY KEY,
		"user_id" TEXT NOT NULL,
		"token" TEXT NOT NULL UNIQUE,
		"expires_at" DATETIME NOT NULL,
		"created_at" DATETIME
	)`).Error; err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	os.Exit(m.Run())
}

// protectedRouter exposes a single authenticated endpoint that echoes the
// resolved caller id.
func protectedRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthMiddleware(db), func(c *gin.Context) {
		caller, _ := GetCaller(c)
		c.JSON(http.StatusOK, gin.H{"user_id": caller.ID.String()})
	})
	return r
}

func issueTestToken(t *testing.T, userID uuid.UUID, roles ...utils.RoleClaim) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, "mw@test.com", roles)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func TestAuthMissingHeader(t *testing.T) {
	router := protectedRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthBadScheme(t *testing.T) {
	router := protectedRouter(nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthInvalidToken(t *testing.T) {
	router := protectedRouter(nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthValidToken(t *testing.T) {
	router := protectedRouter(nil)

	userID := uuid.New()
	token := issueTestToken(t, userID, utils.RoleClaim{Role: models.RoleDiner})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if want := userID.String(); !strings.Contains(w.Body.String(), want) {
		t.Errorf("expected body to contain %s, got %s", want, w.Body.String())
	}
}

func TestAuthRevokedToken(t *testing.T) {
	testDB.Exec("DELETE FROM revoked_tokens")
	router := protectedRouter(testDB)

	userID := uuid.New()
	token := issueTestToken(t, userID, utils.RoleClaim{Role: models.RoleDiner})

	testDB.Create(&models.RevokedToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(2 * time.Hour),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for revoked token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(nil), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	token := issueTestToken(t, uuid.New(), utils.RoleClaim{Role: models.RoleAdmin})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminMiddlewareDeniesDiner(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(nil), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	token := issueTestToken(t, uuid.New(), utils.RoleClaim{Role: models.RoleDiner})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCallerCarriesFranchiseGrant(t *testing.T) {
	fid := uuid.New()
	var got authz.Caller

	r := gin.New()
	r.GET("/whoami", AuthMiddleware(nil), func(c *gin.Context) {
		got, _ = GetCaller(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	token := issueTestToken(t, uuid.New(),
		utils.RoleClaim{Role: models.RoleDiner},
		utils.RoleClaim{Role: models.RoleFranchisee, FranchiseID: &fid})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !got.AdministersFranchise(fid) {
		t.Error("expected caller to carry franchisee grant from token")
	}
}
