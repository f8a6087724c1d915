package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	ws "github.com/IdoNaor1/TasteClub/internal/websocket"
)

func TestRestaurantController_GetMissing(t *testing.T) {
	s := setupControllerTest(t)

	w := s.do(t, http.MethodGet, "/restaurants/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RESTAURANT_NOT_FOUND")
}

func TestRestaurantController_ResolveAndList(t *testing.T) {
	s := setupControllerTest(t)

	w := s.do(t, http.MethodPost, "/restaurants/resolve", ResolvePlaceRequest{PlaceID: "place-1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resolved struct {
		Restaurant model.Restaurant `json:"restaurant"`
	}
	decode(t, w, &resolved)
	assert.Equal(t, "Miznon", resolved.Restaurant.Name)

	w = s.do(t, http.MethodPost, "/restaurants/resolve", ResolvePlaceRequest{PlaceID: "unknown"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PLACE_NOT_FOUND")

	w = s.do(t, http.MethodPost, "/restaurants/resolve", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/restaurants?limit=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var page model.RestaurantPage
	decode(t, w, &page)
	require.Len(t, page.Restaurants, 1)
	assert.Equal(t, "place-1", page.Restaurants[0].ID)
}

func TestRestaurantController_Nearby(t *testing.T) {
	s := setupControllerTest(t)
	require.NoError(t, s.restaurants.UpsertAll(context.Background(), []model.Restaurant{
		{ID: "close", Name: "Close", Lat: 32.0700, Lng: 34.7700},
		{ID: "distant", Name: "Distant", Lat: 32.7940, Lng: 34.9896},
	}))

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantIDs  []string
	}{
		{name: "Default radius", query: "lat=32.07&lng=34.77", wantCode: http.StatusOK, wantIDs: []string{"close"}},
		{name: "Wide radius", query: "lat=32.07&lng=34.77&radiusKm=200", wantCode: http.StatusOK, wantIDs: []string{"close", "distant"}},
		{name: "Missing lat", query: "lng=34.77", wantCode: http.StatusBadRequest},
		{name: "Negative radius", query: "lat=32.07&lng=34.77&radiusKm=-1", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/restaurants/nearby?"+tt.query, nil, "")
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantIDs == nil {
				return
			}
			var resp struct {
				Restaurants []struct {
					ID string `json:"id"`
				} `json:"restaurants"`
			}
			decode(t, w, &resp)
			ids := []string{}
			for _, r := range resp.Restaurants {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRestaurantController_SearchPlaces(t *testing.T) {
	s := setupControllerTest(t)

	w := s.do(t, http.MethodGet, "/places/search?q=pita&lat=32.07&lng=34.77", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.do(t, http.MethodGet, "/places/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamController_RestaurantStream(t *testing.T) {
	s := setupControllerTest(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/restaurants/place-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame := func() ws.Frame {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame ws.Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	}

	initial := readFrame()
	assert.Equal(t, "restaurant:place-1", initial.Stream)
	assert.Nil(t, initial.Data, "nothing cached yet")

	w := s.do(t, http.MethodPost, "/restaurants/resolve", ResolvePlaceRequest{PlaceID: "place-1"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	updated := readFrame()
	data, ok := updated.Data.(map[string]interface{})
	require.True(t, ok, "frame carries the restaurant")
	assert.Equal(t, "Miznon", data["name"])
}
