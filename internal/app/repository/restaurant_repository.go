package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/remote"
	"github.com/IdoNaor1/TasteClub/internal/places"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"github.com/IdoNaor1/TasteClub/pkg/util"
)

// NearbyRestaurant is a cached restaurant with its distance from the query point.
type NearbyRestaurant struct {
	model.Restaurant
	DistanceKm float64 `json:"distanceKm"`
}

type RestaurantRepository interface {
	UpsertRestaurant(ctx context.Context, restaurant *model.Restaurant) (*model.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error)
	RefreshRestaurant(ctx context.Context, id string) (*model.Restaurant, error)
	ObserveRestaurant(ctx context.Context, id string) *cache.Watch[*model.Restaurant]
	DeleteRestaurant(ctx context.Context, id string) error
	RefreshRestaurantsPage(ctx context.Context, limit int, cursor *int64) (model.RestaurantPage, error)
	ListCached(ctx context.Context, limit int, cursor *int64) ([]model.Restaurant, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]NearbyRestaurant, error)
	ResolvePlace(ctx context.Context, placeID string) (*model.Restaurant, error)
	SearchPlaces(ctx context.Context, query string, near *places.LatLng) ([]places.Place, error)
}

type restaurantRepository struct {
	source      *remote.DocumentSource
	restaurants *cache.RestaurantDAO
	places      PlaceFinder
}

func NewRestaurantRepository(source *remote.DocumentSource, restaurants *cache.RestaurantDAO, finder PlaceFinder) RestaurantRepository {
	return &restaurantRepository{source: source, restaurants: restaurants, places: finder}
}

func (r *restaurantRepository) UpsertRestaurant(ctx context.Context, restaurant *model.Restaurant) (*model.Restaurant, error) {
	if restaurant != nil {
		restaurant.Name = strings.TrimSpace(restaurant.Name)
	}
	saved, err := r.source.UpsertRestaurant(ctx, restaurant)
	if err != nil {
		return nil, err
	}
	r.cache(ctx, saved)
	logger.Info("Restaurant saved", logger.Fields{"restaurant_id": saved.ID})
	return saved, nil
}

// GetRestaurant reads the cached restaurant, falling back to the remote store.
func (r *restaurantRepository) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	if cached, err := r.restaurants.GetByID(ctx, id); err == nil && cached != nil {
		return cached, nil
	}
	return r.RefreshRestaurant(ctx, id)
}

// RefreshRestaurant re-reads the restaurant. A restaurant gone from the remote
// store is dropped from the cache too.
func (r *restaurantRepository) RefreshRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	restaurant, err := r.source.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		if err := r.restaurants.DeleteByID(ctx, id); err != nil {
			logger.Warn("Failed to drop stale restaurant from cache", logger.Fields{"restaurant_id": id})
		}
		return nil, fmt.Errorf("%w: restaurant %s", model.ErrNotFound, id)
	}
	r.cache(ctx, restaurant)
	return restaurant, nil
}

func (r *restaurantRepository) ObserveRestaurant(ctx context.Context, id string) *cache.Watch[*model.Restaurant] {
	return r.restaurants.Observe(ctx, id)
}

func (r *restaurantRepository) DeleteRestaurant(ctx context.Context, id string) error {
	if err := r.source.DeleteRestaurant(ctx, id); err != nil {
		return err
	}
	if err := r.restaurants.DeleteByID(ctx, id); err != nil {
		logger.Warn("Failed to delete restaurant from cache", logger.Fields{"restaurant_id": id, "error": err.Error()})
	}
	logger.Info("Restaurant deleted", logger.Fields{"restaurant_id": id})
	return nil
}

func (r *restaurantRepository) RefreshRestaurantsPage(ctx context.Context, limit int, cursor *int64) (model.RestaurantPage, error) {
	page, err := r.source.GetRestaurantsPage(ctx, limit, cursor)
	if err != nil {
		return model.RestaurantPage{}, err
	}
	if err := r.restaurants.UpsertAll(ctx, page); err != nil {
		logger.Warn("Failed to cache restaurant page", logger.Fields{"error": err.Error()})
	}
	return model.NewRestaurantPage(page, limit), nil
}

func (r *restaurantRepository) ListCached(ctx context.Context, limit int, cursor *int64) ([]model.Restaurant, error) {
	return r.restaurants.List(ctx, limit, cursor)
}

// Nearby ranks cached restaurants within radiusKm of (lat, lng) by distance.
func (r *restaurantRepository) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]NearbyRestaurant, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", model.ErrInvalidArgument)
	}
	all, err := r.restaurants.List(ctx, 0, nil)
	if err != nil {
		return nil, err
	}

	nearby := []NearbyRestaurant{}
	for _, restaurant := range all {
		if restaurant.Lat == 0 && restaurant.Lng == 0 {
			continue
		}
		d := util.DistanceKm(lat, lng, restaurant.Lat, restaurant.Lng)
		if d <= radiusKm {
			nearby = append(nearby, NearbyRestaurant{Restaurant: restaurant, DistanceKm: d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// ResolvePlace returns the restaurant for an external place id, creating it
// from the place directory on first use.
func (r *restaurantRepository) ResolvePlace(ctx context.Context, placeID string) (*model.Restaurant, error) {
	existing, err := r.source.GetRestaurant(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Name != "" {
		r.cache(ctx, existing)
		return existing, nil
	}

	place, err := r.places.GetPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	photoURL, err := r.places.PhotoURL(ctx, place.PhotoName)
	if err != nil {
		logger.Warn("Failed to resolve place photo", logger.Fields{"place_id": placeID, "error": err.Error()})
		photoURL = ""
	}

	return r.UpsertRestaurant(ctx, &model.Restaurant{
		ID:          placeID,
		Name:        place.Name,
		Address:     place.Address,
		Lat:         place.Lat,
		Lng:         place.Lng,
		PrimaryType: place.PrimaryType,
		PhotoURL:    photoURL,
	})
}

func (r *restaurantRepository) SearchPlaces(ctx context.Context, query string, near *places.LatLng) ([]places.Place, error) {
	return r.places.SearchRestaurants(ctx, query, near)
}

func (r *restaurantRepository) cache(ctx context.Context, restaurant *model.Restaurant) {
	if err := r.restaurants.Upsert(ctx, restaurant); err != nil {
		logger.Warn("Failed to mirror restaurant into cache", logger.Fields{
			"restaurant_id": restaurant.ID,
			"error":         err.Error(),
		})
	}
}
