package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	apperrors "github.com/IdoNaor1/TasteClub/internal/errors"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
	"github.com/IdoNaor1/TasteClub/internal/places"
)

const defaultNearbyRadiusKm = 5.0

type RestaurantController struct {
	restaurants repository.RestaurantRepository
	reviews     repository.ReviewRepository
}

func NewRestaurantController(restaurants repository.RestaurantRepository, reviews repository.ReviewRepository) *RestaurantController {
	return &RestaurantController{restaurants: restaurants, reviews: reviews}
}

type UpsertRestaurantRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PrimaryType string  `json:"primaryType"`
	PhotoURL    string  `json:"photoUrl"`
}

type ResolvePlaceRequest struct {
	PlaceID string `json:"placeId" binding:"required"`
}

// ListRestaurants returns a page of restaurants, newest first
// GET /api/v1/restaurants?limit=&cursor=
func (ctrl *RestaurantController) ListRestaurants(c *gin.Context) {
	limit, cursor, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	page, err := ctrl.restaurants.RefreshRestaurantsPage(c.Request.Context(), limit, cursor)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "restaurant")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRestaurant returns one restaurant
// GET /api/v1/restaurants/:id
func (ctrl *RestaurantController) GetRestaurant(c *gin.Context) {
	restaurant, err := ctrl.restaurants.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// UpsertRestaurant writes the descriptive fields of a restaurant
// PUT /api/v1/restaurants/:id
func (ctrl *RestaurantController) UpsertRestaurant(c *gin.Context) {
	var req UpsertRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid restaurant request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid restaurant details")
		return
	}

	restaurant, err := ctrl.restaurants.UpsertRestaurant(c.Request.Context(), &model.Restaurant{
		ID:          c.Param("id"),
		Name:        req.Name,
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		PrimaryType: req.PrimaryType,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// DeleteRestaurant removes a restaurant; its reviews are kept
// DELETE /api/v1/restaurants/:id
func (ctrl *RestaurantController) DeleteRestaurant(c *gin.Context) {
	if err := ctrl.restaurants.DeleteRestaurant(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.RespondWithDomainError(c, err, "delete restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// GetRestaurantReviews returns a page of the restaurant's reviews
// GET /api/v1/restaurants/:id/reviews?limit=&cursor=
func (ctrl *RestaurantController) GetRestaurantReviews(c *gin.Context) {
	limit, cursor, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	page, err := ctrl.reviews.RefreshRestaurantReviewsPage(c.Request.Context(), c.Param("id"), limit, cursor)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Nearby lists cached restaurants around a point
// GET /api/v1/restaurants/nearby?lat=&lng=&radiusKm=&limit=
func (ctrl *RestaurantController) Nearby(c *gin.Context) {
	lat, hasLat, err := parseFloatQuery(c, "lat")
	if err != nil || !hasLat {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "lat is required")
		return
	}
	lng, hasLng, err := parseFloatQuery(c, "lng")
	if err != nil || !hasLng {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "lng is required")
		return
	}
	radius, hasRadius, err := parseFloatQuery(c, "radiusKm")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}
	if !hasRadius {
		radius = defaultNearbyRadiusKm
	}
	limit, _, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	nearby, err := ctrl.restaurants.Nearby(c.Request.Context(), lat, lng, radius, limit)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": nearby, "count": len(nearby)})
}

// ResolvePlace turns an external place id into a restaurant
// POST /api/v1/restaurants/resolve
func (ctrl *RestaurantController) ResolvePlace(c *gin.Context) {
	var req ResolvePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "placeId is required")
		return
	}

	restaurant, err := ctrl.restaurants.ResolvePlace(c.Request.Context(), req.PlaceID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// SearchPlaces searches the place directory for restaurants
// GET /api/v1/places/search?q=&lat=&lng=
func (ctrl *RestaurantController) SearchPlaces(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "q is required")
		return
	}

	var near *places.LatLng
	lat, hasLat, latErr := parseFloatQuery(c, "lat")
	lng, hasLng, lngErr := parseFloatQuery(c, "lng")
	if latErr != nil || lngErr != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "lat and lng must be numbers")
		return
	}
	if hasLat && hasLng {
		near = &places.LatLng{Latitude: lat, Longitude: lng}
	}

	results, err := ctrl.restaurants.SearchPlaces(c.Request.Context(), query, near)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": results, "count": len(results)})
}
