package model

import "slices"

// Review is the document stored at reviews/{id}.
//
// UserName, UserProfileImageURL, RestaurantName and RestaurantAddress are
// copied from the author and restaurant when the review is written. Later
// edits of the user or restaurant are not propagated.
type Review struct {
	ID                  string   `gorm:"primaryKey" json:"id" firestore:"id"`
	UserID              string   `gorm:"index;not null" json:"userId" firestore:"userId"`
	UserName            string   `json:"userName" firestore:"userName"`
	UserProfileImageURL string   `json:"userProfileImageUrl" firestore:"userProfileImageUrl"`
	RestaurantID        string   `gorm:"index" json:"restaurantId" firestore:"restaurantId"`
	RestaurantName      string   `json:"restaurantName" firestore:"restaurantName"`
	RestaurantAddress   string   `json:"restaurantAddress" firestore:"restaurantAddress"`
	Rating              int      `json:"rating" firestore:"rating"` // 1-5
	Text                string   `gorm:"type:text" json:"text" firestore:"text"`
	ImageURL            string   `json:"imageUrl" firestore:"imageUrl"`
	LikedBy             []string `gorm:"serializer:json" json:"likedBy" firestore:"likedBy"` // set of user ids
	CreatedAt           int64    `gorm:"index" json:"createdAt" firestore:"createdAt"`
	LastUpdated         int64    `json:"lastUpdated" firestore:"lastUpdated"`
}

func (Review) TableName() string {
	return "reviews"
}

const (
	MinRating = 1
	MaxRating = 5
)

// IsLikedBy reports whether userID is in LikedBy.
func (r *Review) IsLikedBy(userID string) bool {
	return slices.Contains(r.LikedBy, userID)
}

// LikeCount is the number of distinct users that liked the review.
func (r *Review) LikeCount() int {
	return len(r.LikedBy)
}

// ReviewPage is one page of a createdAt-descending review listing.
// NextCursor is the createdAt of the last review, nil for an empty page.
type ReviewPage struct {
	Reviews    []Review `json:"reviews"`
	NextCursor *int64   `json:"nextCursor,omitempty"`
	HasMore    bool     `json:"hasMore"`
}

// NewReviewPage builds a page. A full page is assumed to have a successor.
func NewReviewPage(reviews []Review, limit int) ReviewPage {
	if reviews == nil {
		reviews = []Review{}
	}
	page := ReviewPage{Reviews: reviews, HasMore: limit > 0 && len(reviews) == limit}
	if n := len(reviews); n > 0 {
		cursor := reviews[n-1].CreatedAt
		page.NextCursor = &cursor
	}
	return page
}
