package model

// Restaurant is the document stored at restaurants/{id}; the id is the external place id.
// AverageRating and NumReviews are derived from the reviews referencing the restaurant
// and are never written by callers.
type Restaurant struct {
	ID            string  `gorm:"primaryKey" json:"id" firestore:"id"`
	Name          string  `json:"name" firestore:"name"`
	Address       string  `json:"address" firestore:"address"`
	Lat           float64 `json:"lat" firestore:"lat"`
	Lng           float64 `json:"lng" firestore:"lng"`
	PrimaryType   string  `json:"primaryType" firestore:"primaryType"` // category label
	PhotoURL      string  `json:"photoUrl" firestore:"photoUrl"`
	AverageRating float64 `json:"averageRating" firestore:"averageRating"`
	NumReviews    int     `json:"numReviews" firestore:"numReviews"`
	CreatedAt     int64   `gorm:"index" json:"createdAt" firestore:"createdAt"`
	LastUpdated   int64   `json:"lastUpdated" firestore:"lastUpdated"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}

// RestaurantPage is one page of a createdAt-descending restaurant listing.
type RestaurantPage struct {
	Restaurants []Restaurant `json:"restaurants"`
	NextCursor  *int64       `json:"nextCursor,omitempty"`
	HasMore     bool         `json:"hasMore"`
}

func NewRestaurantPage(restaurants []Restaurant, limit int) RestaurantPage {
	if restaurants == nil {
		restaurants = []Restaurant{}
	}
	page := RestaurantPage{Restaurants: restaurants, HasMore: limit > 0 && len(restaurants) == limit}
	if n := len(restaurants); n > 0 {
		cursor := restaurants[n-1].CreatedAt
		page.NextCursor = &cursor
	}
	return page
}
