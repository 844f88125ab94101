package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pizza-backend/utils"
)

func expectValidJWT(t *testing.T, token string) {
	t.Helper()
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected three-segment token, got %d segments", len(parts))
	}
}

func TestRegisterSuccess(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{
		"name":     "Pizza Diner",
		"email":    "newuser@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	expectValidJWT(t, resp["token"].(string))

	user := resp["user"].(map[string]interface{})
	if user["email"] != "newuser@test.com" {
		t.Errorf("expected email newuser@test.com, got %v", user["email"])
	}
	roles, ok := user["roles"].([]interface{})
	if !ok || len(roles) != 1 {
		t.Fatalf("expected one role grant, got %v", user["roles"])
	}
	if roles[0].(map[string]interface{})["role"] != "diner" {
		t.Errorf("expected diner role, got %v", roles[0])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	seedUser(db, "existing@test.com")

	body := map[string]string{
		"email":    "existing@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth", body))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterMissingEmail(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{"password": "password123"}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginSuccess(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	user, _ := seedUser(db, "login@test.com")

	body := map[string]string{
		"email":    "login@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("PUT", "/api/auth", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(w)
	expectValidJWT(t, resp["token"].(string))

	claims, err := utils.ValidateToken(resp["token"].(string))
	if err != nil {
		t.Fatalf("expected valid token, got: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected token for user %s, got %s", user.ID, claims.UserID)
	}
}

// Registration and a subsequent login must both yield tokens that decode to
// the same user id.
func TestRegisterLoginRoundTrip(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{
		"name":     "roundtrip",
		"email":    "roundtrip@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth", body))
	if w.Code != http.StatusOK {
		t.Fatalf("register failed: %d: %s", w.Code, w.Body.String())
	}
	regToken := parseResponse(w)["token"].(string)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("PUT", "/api/auth", map[string]string{
		"email":    "roundtrip@test.com",
		"password": "password123",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d: %s", w.Code, w.Body.String())
	}
	loginToken := parseResponse(w)["token"].(string)

	regClaims, err := utils.ValidateToken(regToken)
	if err != nil {
		t.Fatal(err)
	}
	loginClaims, err := utils.ValidateToken(loginToken)
	if err != nil {
		t.Fatal(err)
	}
	if regClaims.UserID != loginClaims.UserID {
		t.Errorf("expected same user id, got %s and %s", regClaims.UserID, loginClaims.UserID)
	}
}

// The payload segment of an issued token must base64-decode to a record
// containing the user id.
func TestTokenPayloadContainsUserID(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/api/auth", map[string]string{
		"email":    "payload@test.com",
		"password": "password123",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("register failed: %d: %s", w.Code, w.Body.String())
	}
	token := parseResponse(w)["token"].(string)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	if err != nil {
		t.Fatalf("failed to decode payload segment: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["user_id"] == nil || decoded["user_id"] == "" {
		t.Error("expected user_id in token payload")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	seedUser(db, "wrongpwd@test.com")

	body := map[string]string{
		"email":    "wrongpwd@test.com",
		"password": "not-the-password",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("PUT", "/api/auth", body))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	body := map[string]string{
		"email":    "nobody@test.com",
		"password": "password123",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("PUT", "/api/auth", body))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	db := freshDB()
	router := setupAuthRouter(db)

	_, token := seedDiner(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/api/auth", nil, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if msg := parseResponse(w)["message"]; msg != "logout successful" {
		t.Errorf("expected logout message, got %v", msg)
	}

	// The surrendered token is no longer accepted.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("DELETE", "/api/auth", nil, token))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for revoked token, got %d: %s", w.Code, w.Body.String())
	}
}
