// Package places is a read-only client for the Google Places API (New).
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// BiasRange is the half-width in degrees of the search bias box, roughly 5 km.
const BiasRange = 0.05

const (
	detailsFieldMask = "id,displayName,formattedAddress,location,primaryTypeDisplayName,photos"
	searchFieldMask  = "places.id,places.displayName,places.formattedAddress,places.location,places.primaryTypeDisplayName,places.photos"
	maxPhotoWidthPx  = 800
)

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Rectangle struct {
	Low  LatLng `json:"low"`
	High LatLng `json:"high"`
}

// BiasBox returns the rectangle of ±BiasRange degrees around center.
func BiasBox(center LatLng) Rectangle {
	return Rectangle{
		Low:  LatLng{Latitude: center.Latitude - BiasRange, Longitude: center.Longitude - BiasRange},
		High: LatLng{Latitude: center.Latitude + BiasRange, Longitude: center.Longitude + BiasRange},
	}
}

// Place is the subset of place details the service uses.
type Place struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PrimaryType string  `json:"primaryType"`
	PhotoName   string  `json:"photoName,omitempty"`
}

type localizedText struct {
	Text string `json:"text"`
}

type apiPlace struct {
	ID                     string        `json:"id"`
	DisplayName            localizedText `json:"displayName"`
	FormattedAddress       string        `json:"formattedAddress"`
	Location               LatLng        `json:"location"`
	PrimaryTypeDisplayName localizedText `json:"primaryTypeDisplayName"`
	Photos                 []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

func (p apiPlace) toPlace() Place {
	place := Place{
		ID:          p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Lat:         p.Location.Latitude,
		Lng:         p.Location.Longitude,
		PrimaryType: p.PrimaryTypeDisplayName.Text,
	}
	if len(p.Photos) > 0 {
		place.PhotoName = p.Photos[0].Name
	}
	return place
}

type searchTextRequest struct {
	TextQuery    string `json:"textQuery"`
	IncludedType string `json:"includedType,omitempty"`
	LocationBias *struct {
		Rectangle Rectangle `json:"rectangle"`
	} `json:"locationBias,omitempty"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.PlacesConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// GetPlace fetches one place. It returns model.ErrNotFound for an unknown id.
func (c *Client) GetPlace(ctx context.Context, placeID string) (*Place, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("%w: place id must not be blank", model.ErrInvalidArgument)
	}
	var resp apiPlace
	endpoint := fmt.Sprintf("%s/places/%s", c.baseURL, url.PathEscape(placeID))
	if err := c.do(ctx, http.MethodGet, endpoint, detailsFieldMask, nil, &resp); err != nil {
		return nil, err
	}
	place := resp.toPlace()
	if place.ID == "" {
		place.ID = placeID
	}
	return &place, nil
}

// SearchRestaurants runs a text search restricted to restaurants, biased
// towards near when it is non-nil.
func (c *Client) SearchRestaurants(ctx context.Context, query string, near *LatLng) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be blank", model.ErrInvalidArgument)
	}
	req := searchTextRequest{TextQuery: query, IncludedType: "restaurant"}
	if near != nil {
		req.LocationBias = &struct {
			Rectangle Rectangle `json:"rectangle"`
		}{Rectangle: BiasBox(*near)}
	}

	var resp struct {
		Places []apiPlace `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/places:searchText", searchFieldMask, req, &resp); err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		places = append(places, p.toPlace())
	}
	return places, nil
}

// PhotoURL resolves a photo resource name into a short-lived public image URL.
func (c *Client) PhotoURL(ctx context.Context, photoName string) (string, error) {
	if photoName == "" {
		return "", nil
	}
	endpoint := fmt.Sprintf("%s/%s/media?maxWidthPx=%d&skipHttpRedirect=true", c.baseURL, photoName, maxPhotoWidthPx)
	var resp struct {
		PhotoURI string `json:"photoUri"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return "", err
	}
	return resp.PhotoURI, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, fieldMask string, body, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: places API key not configured", model.ErrUnavailable)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	if fieldMask != "" {
		req.Header.Set("X-Goog-FieldMask", fieldMask)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Places API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("Places API call", logger.Fields{
		"method":  method,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: place", model.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("places API returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
