package repository

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/db"
	"github.com/IdoNaor1/TasteClub/internal/docstore"
	"github.com/IdoNaor1/TasteClub/internal/places"
	"github.com/IdoNaor1/TasteClub/internal/storage"
)

type memoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]bool
	resets  map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{revoked: map[string]bool{}, resets: map[string]string{}}
}

func (s *memoryTokenStore) RevokeToken(_ context.Context, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
	return nil
}

func (s *memoryTokenStore) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

func (s *memoryTokenStore) SaveResetToken(_ context.Context, token, email string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token] = email
	return nil
}

func (s *memoryTokenStore) ConsumeResetToken(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[token]
	delete(s.resets, token)
	return email, ok, nil
}

type recordingMailer struct {
	to    string
	token string
}

func (m *recordingMailer) SendPasswordReset(toEmail, token string) error {
	m.to, m.token = toEmail, token
	return nil
}

type stubPlaces struct {
	places map[string]places.Place
	calls  int
}

func (s *stubPlaces) GetPlace(_ context.Context, placeID string) (*places.Place, error) {
	s.calls++
	p, ok := s.places[placeID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (s *stubPlaces) SearchRestaurants(_ context.Context, _ string, _ *places.LatLng) ([]places.Place, error) {
	out := []places.Place{}
	for _, p := range s.places {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubPlaces) PhotoURL(_ context.Context, photoName string) (string, error) {
	if photoName == "" {
		return "", nil
	}
	return "https://photos.test/" + photoName, nil
}

type testEnv struct {
	store       *docstore.MemoryStore
	source      *remote.DocumentSource
	blobs       *storage.MemoryStorage
	hub         *cache.ChangeHub
	users       *cache.UserDAO
	reviews     *cache.ReviewDAO
	restaurants *cache.RestaurantDAO
	tokens      *memoryTokenStore
	mailer      *recordingMailer
	places      *stubPlaces

	auth       AuthRepository
	review     ReviewRepository
	restaurant RestaurantRepository
}

func setupRepositoryTest(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		store:  docstore.NewMemoryStore(),
		blobs:  storage.NewMemoryStorage("https://cdn.test"),
		hub:    cache.NewChangeHub(),
		tokens: newMemoryTokenStore(),
		mailer: &recordingMailer{},
		places: &stubPlaces{places: map[string]places.Place{}},
	}
	env.source = remote.NewDocumentSource(env.store)
	env.users = cache.NewUserDAO(testDB, env.hub)
	env.reviews = cache.NewReviewDAO(testDB, env.hub)
	env.restaurants = cache.NewRestaurantDAO(testDB, env.hub)

	images := storage.NewImageStorage(env.blobs)
	jwtCfg := config.JWTConfig{
		Secret:             "test-jwt-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
	env.auth = NewAuthRepository(env.source, images, env.users, env.tokens, env.mailer, jwtCfg, 30*time.Minute)
	env.review = NewReviewRepository(env.source, images, env.reviews, env.users, env.restaurants)
	env.restaurant = NewRestaurantRepository(env.source, env.restaurants, env.places)
	return env
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 40), B: uint8(y * 40), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
