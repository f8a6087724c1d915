package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/pkg/util"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type revokedSet map[string]bool

func (r revokedSet) IsTokenRevoked(_ context.Context, claims *util.Claims) (bool, error) {
	return r[claims.ID], nil
}

func setupMiddlewareTest(revoked revokedSet) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	var checker RevocationChecker
	if revoked != nil {
		checker = revoked
	}
	return router, NewAuthMiddleware(testJWTSecret, checker)
}

func generateTestTokens(t *testing.T, userID, email string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, email, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	tokens := generateTestTokens(t, "uid-1", "test@example.com")

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email, "token": GetAccessToken(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"uid-1"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	tokens := generateTestTokens(t, "uid-1", "test@example.com")

	router.GET("/ws", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ws?token="+tokens.AccessToken, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	tokens := generateTestTokens(t, "uid-1", "test@example.com")
	expired, err := util.GenerateTokenPair("uid-1", "test@example.com", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "No token", header: "", wantCode: "AUTH_UNAUTHORIZED"},
		{name: "Invalid format", header: "Token " + tokens.AccessToken, wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Missing bearer value", header: "Bearer", wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Garbage token", header: "Bearer not-a-jwt", wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Refresh token", header: "Bearer " + tokens.RefreshToken, wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Expired token", header: "Bearer " + expired.AccessToken, wantCode: "AUTH_TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, authMiddleware := setupMiddlewareTest(nil)
			router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(router, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthMiddleware_Authenticate_Revoked(t *testing.T) {
	tokens := generateTestTokens(t, "uid-1", "test@example.com")
	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)

	router, authMiddleware := setupMiddlewareTest(revokedSet{claims.ID: true})
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_REVOKED")
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	tokens := generateTestTokens(t, "uid-7", "opt@example.com")

	router.GET("/test", authMiddleware.OptionalAuthenticate(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": ok})
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "Guest", header: "", want: `"authenticated":false`},
		{name: "Invalid token", header: "Bearer nope", want: `"authenticated":false`},
		{name: "Valid token", header: "Bearer " + tokens.AccessToken, want: `"user_id":"uid-7"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(router, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, "uid-9")
	uid, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, "uid-9", uid)
}
