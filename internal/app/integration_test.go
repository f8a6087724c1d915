package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/config"
)

type TestServer struct {
	Container *Container
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{GinMode: "test", Environment: "test"},
		Remote: config.RemoteConfig{Driver: "memory"},
		Cache: config.CacheConfig{
			Driver:        "sqlite",
			Path:          filepath.Join(t.TempDir(), "cache.db"),
			SchemaVersion: 1,
		},
		Storage: config.StorageConfig{Driver: "memory", S3: config.S3Config{BaseURL: "https://cdn.test"}},
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Places: config.PlacesConfig{BaseURL: "http://127.0.0.1:0", Timeout: time.Second},
		Mail:   config.MailConfig{ResetTokenTTL: time.Minute},
	}
}

func setupIntegrationTest(t *testing.T) *TestServer {
	c, err := NewContainer(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return &TestServer{Container: c}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Container.Engine.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestCompleteReviewJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Register user")
	w, resp := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "diner@example.com",
		"password": "password123",
		"userName": "Diner",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := resp["tokens"].(map[string]interface{})["accessToken"].(string)
	require.NotEmpty(t, token)

	t.Log("Step 2: Create restaurant")
	w, _ = ts.request(t, http.MethodPut, "/api/v1/restaurants/place-1", token, map[string]interface{}{
		"name":    "Miznon",
		"address": "King George 30",
		"lat":     32.07,
		"lng":     34.77,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Log("Step 3: Post review")
	w, resp = ts.request(t, http.MethodPost, "/api/v1/reviews", token, map[string]interface{}{
		"restaurantId": "place-1",
		"rating":       4,
		"text":         "Great pita",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := resp["review"].(map[string]interface{})
	reviewID := review["id"].(string)
	assert.Equal(t, "Diner", review["userName"])
	assert.Equal(t, "Miznon", review["restaurantName"])

	t.Log("Step 4: Aggregates updated")
	w, resp = ts.request(t, http.MethodGet, "/api/v1/restaurants/place-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	restaurant := resp["restaurant"].(map[string]interface{})
	assert.Equal(t, float64(1), restaurant["numReviews"])
	assert.Equal(t, float64(4), restaurant["averageRating"])

	t.Log("Step 5: Like review")
	w, resp = ts.request(t, http.MethodPost, "/api/v1/reviews/"+reviewID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp["liked"])

	t.Log("Step 6: Feed shows review")
	w, resp = ts.request(t, http.MethodGet, "/api/v1/reviews/feed?limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["reviews"], 1)
	assert.Equal(t, false, resp["hasMore"])

	t.Log("Step 7: Delete review")
	w, _ = ts.request(t, http.MethodDelete, "/api/v1/reviews/"+reviewID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = ts.request(t, http.MethodGet, "/api/v1/reviews/"+reviewID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = ts.request(t, http.MethodGet, "/api/v1/restaurants/place-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	restaurant = resp["restaurant"].(map[string]interface{})
	assert.Equal(t, float64(0), restaurant["numReviews"])
	assert.Equal(t, float64(0), restaurant["averageRating"])
}

func TestUnauthenticatedWritesRejected(t *testing.T) {
	ts := setupIntegrationTest(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "Create review", method: http.MethodPost, path: "/api/v1/reviews"},
		{name: "Delete review", method: http.MethodDelete, path: "/api/v1/reviews/r1"},
		{name: "Like review", method: http.MethodPost, path: "/api/v1/reviews/r1/like"},
		{name: "Upsert restaurant", method: http.MethodPut, path: "/api/v1/restaurants/p1"},
		{name: "Profile", method: http.MethodGet, path: "/api/v1/auth/me"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := ts.request(t, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPasswordResetWithoutRedis(t *testing.T) {
	ts := setupIntegrationTest(t)

	w, _ := ts.request(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{
		"email": "diner@example.com",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewContainer_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "ftp"

	c, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, c)
}
