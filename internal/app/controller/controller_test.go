package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	"github.com/IdoNaor1/TasteClub/internal/db"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
	"github.com/IdoNaor1/TasteClub/internal/places"
	"github.com/IdoNaor1/TasteClub/internal/storage"
	ws "github.com/IdoNaor1/TasteClub/internal/websocket"
)

const testJWTSecret = "test-secret"

type fixedPlaces struct{}

func (fixedPlaces) GetPlace(_ context.Context, placeID string) (*places.Place, error) {
	if placeID != "place-1" {
		return nil, model.ErrNotFound
	}
	return &places.Place{ID: "place-1", Name: "Miznon", Address: "King George 30", Lat: 32.07, Lng: 34.77}, nil
}

func (fixedPlaces) SearchRestaurants(_ context.Context, query string, _ *places.LatLng) ([]places.Place, error) {
	return []places.Place{{ID: "place-1", Name: "Miznon"}}, nil
}

func (fixedPlaces) PhotoURL(_ context.Context, _ string) (string, error) {
	return "", nil
}

type testServer struct {
	router      *gin.Engine
	source      *remote.DocumentSource
	restaurants *cache.RestaurantDAO
	hub         *ws.Hub
}

func setupControllerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	changes := cache.NewChangeHub()
	users := cache.NewUserDAO(testDB, changes)
	reviewDAO := cache.NewReviewDAO(testDB, changes)
	restaurantDAO := cache.NewRestaurantDAO(testDB, changes)
	source := remote.NewDocumentSource(docstore.NewMemoryStore())
	images := storage.NewImageStorage(storage.NewMemoryStorage("https://cdn.test"))

	jwtCfg := config.JWTConfig{Secret: testJWTSecret, AccessTokenExpiry: 15 * time.Minute, RefreshTokenExpiry: time.Hour}
	authRepo := repository.NewAuthRepository(source, images, users, nil, nil, jwtCfg, time.Minute)
	reviewRepo := repository.NewReviewRepository(source, images, reviewDAO, users, restaurantDAO)
	restaurantRepo := repository.NewRestaurantRepository(source, restaurantDAO, fixedPlaces{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	authCtrl := NewAuthController(authRepo)
	userCtrl := NewUserController(authRepo, reviewRepo)
	reviewCtrl := NewReviewController(reviewRepo)
	restaurantCtrl := NewRestaurantController(restaurantRepo, reviewRepo)
	streamCtrl := NewStreamController(authRepo, reviewRepo, restaurantRepo, hub, nil)
	auth := middleware.NewAuthMiddleware(testJWTSecret, authRepo)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)
	router.POST("/auth/refresh", authCtrl.RefreshToken)
	router.POST("/auth/forgot-password", authCtrl.ForgotPassword)
	router.GET("/auth/me", auth.Authenticate(), authCtrl.GetMe)
	router.PUT("/auth/me", auth.Authenticate(), authCtrl.UpdateMe)
	router.PUT("/auth/me/profile-image", auth.Authenticate(), authCtrl.UpdateProfileImage)
	router.GET("/users/:id", userCtrl.GetUser)
	router.GET("/users/:id/reviews", userCtrl.GetUserReviews)
	router.GET("/reviews/feed", reviewCtrl.GetFeed)
	router.GET("/reviews/cached", reviewCtrl.GetCached)
	router.GET("/reviews/:id", reviewCtrl.GetReview)
	router.POST("/reviews", auth.Authenticate(), reviewCtrl.CreateReview)
	router.PUT("/reviews/:id", auth.Authenticate(), reviewCtrl.UpdateReview)
	router.DELETE("/reviews/:id", auth.Authenticate(), reviewCtrl.DeleteReview)
	router.POST("/reviews/:id/like", auth.Authenticate(), reviewCtrl.ToggleLike)
	router.GET("/restaurants", restaurantCtrl.ListRestaurants)
	router.GET("/restaurants/nearby", restaurantCtrl.Nearby)
	router.GET("/restaurants/:id", restaurantCtrl.GetRestaurant)
	router.GET("/restaurants/:id/reviews", restaurantCtrl.GetRestaurantReviews)
	router.POST("/restaurants/resolve", restaurantCtrl.ResolvePlace)
	router.GET("/places/search", restaurantCtrl.SearchPlaces)
	router.GET("/ws/restaurants/:id", streamCtrl.Restaurant)

	return &testServer{router: router, source: source, restaurants: restaurantDAO, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) multipart(t *testing.T, method, path string, fields map[string]string, image []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates a user and returns its uid and access token.
func (s *testServer) register(t *testing.T, email, userName string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", RegisterRequest{Email: email, Password: "secret123", UserName: userName}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User   model.User `json:"user"`
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.UID, resp.Tokens.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
