package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fundledger/internal/config"
	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func testUser(role models.Role) *models.User {
	u := &models.User{Email: "someone@example.com", Role: role}
	u.ID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	return u
}

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogging(), ErrorHandler())
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(ContextUserID),
			"role":    c.MustGet(ContextRole),
		})
	})
	r.GET("/test", chain...)
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	return errObj["code"].(string)
}

func TestAuthMiddleware(t *testing.T) {
	access, err := GenerateAccessToken(testUser(models.RoleUser))
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	refresh, err := GenerateRefreshToken(testUser(models.RoleUser))
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid_access_token", "Bearer " + access, http.StatusOK, ""},
		{"missing_header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong_scheme", "Token " + access, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage_token", "Bearer not-a-jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"refresh_token_rejected", "Bearer " + refresh, http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	r := setupRouter(AuthMiddleware())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := errorCode(t, rec); got != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, got)
				}
				return
			}
			body := parseBody(t, rec)
			if body["user_id"] != testUser(models.RoleUser).ID {
				t.Errorf("unexpected user_id %v", body["user_id"])
			}
			if body["role"] != "user" {
				t.Errorf("unexpected role %v", body["role"])
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	user := testUser(models.RoleAdmin)
	refresh, _ := GenerateRefreshToken(user)
	access, _ := GenerateAccessToken(user)

	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("expected valid refresh token, got %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to be rejected")
	}
	if _, err := ValidateRefreshToken("garbage"); err == nil {
		t.Error("expected garbage to be rejected")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashToken("token-b") {
		t.Error("different tokens hashed equal")
	}
	if a != HashToken("token-a") {
		t.Error("hash is not deterministic")
	}
}

func TestRequireAdmin(t *testing.T) {
	r := setupRouter(AuthMiddleware(), RequireAdmin())

	t.Run("admin_allowed", func(t *testing.T) {
		token, _ := GenerateAccessToken(testUser(models.RoleAdmin))
		rec := doRequest(r, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("user_forbidden", func(t *testing.T) {
		token, _ := GenerateAccessToken(testUser(models.RoleUser))
		rec := doRequest(r, token)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if got := errorCode(t, rec); got != "FORBIDDEN" {
			t.Errorf("expected FORBIDDEN, got %s", got)
		}
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrProjectNotFound)
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("db exploded"))
	})

	t.Run("app_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := errorCode(t, rec); got != "PROJECT_NOT_FOUND" {
			t.Errorf("expected PROJECT_NOT_FOUND, got %s", got)
		}
	})

	t.Run("unexpected_error_is_hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		body := parseBody(t, rec)
		if body["message"] == "db exploded" {
			t.Error("internal error leaked to client")
		}
	})
}

func TestRequestLogging_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", http.NoBody))
		if rec.Header().Get("X-Request-ID") == "" || rec.Body.String() != rec.Header().Get("X-Request-ID") {
			t.Errorf("expected generated request id in header and context")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", http.NoBody)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Header().Get("X-Request-ID") != "abc-123" {
			t.Errorf("expected propagated request id, got %q", rec.Header().Get("X-Request-ID"))
		}
	})
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://app.example.com"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/x", http.NoBody))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("unexpected origin header %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
