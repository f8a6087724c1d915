package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	apperrors "github.com/IdoNaor1/TasteClub/internal/errors"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
)

type ReviewController struct {
	reviews repository.ReviewRepository
}

func NewReviewController(reviews repository.ReviewRepository) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// ReviewRequest is accepted as JSON or as multipart form fields next to an
// optional "image" file.
type ReviewRequest struct {
	RestaurantID string `json:"restaurantId" form:"restaurantId"`
	Rating       int    `json:"rating" form:"rating"`
	Text         string `json:"text" form:"text"`
	RemoveImage  bool   `json:"removeImage" form:"removeImage"`
}

func (r ReviewRequest) input() repository.ReviewInput {
	return repository.ReviewInput{RestaurantID: r.RestaurantID, Rating: r.Rating, Text: r.Text}
}

func (ctrl *ReviewController) bindReview(c *gin.Context) (*ReviewRequest, []byte, bool) {
	log := middleware.GetLoggerFromContext(c)

	var req ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Invalid review request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid review details")
		return nil, nil, false
	}
	image, err := readImage(c)
	if err != nil {
		log.Warn("Invalid review image upload", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return nil, nil, false
	}
	return &req, image, true
}

// GetFeed fetches a page of the global feed and stores it in the cache
// GET /api/v1/reviews/feed?limit=&cursor=
func (ctrl *ReviewController) GetFeed(c *gin.Context) {
	limit, cursor, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	page, err := ctrl.reviews.RefreshFeedPage(c.Request.Context(), limit, cursor)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetCached reads reviews from the local cache only
// GET /api/v1/reviews/cached?userId=&restaurantId=&limit=&cursor=
func (ctrl *ReviewController) GetCached(c *gin.Context) {
	limit, cursor, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	reviews, err := ctrl.reviews.ListCached(c.Request.Context(), cache.ReviewQuery{
		UserID:       c.Query("userId"),
		RestaurantID: c.Query("restaurantId"),
		Before:       cursor,
		Limit:        limit,
	})
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

// GetReview returns one review
// GET /api/v1/reviews/:id
func (ctrl *ReviewController) GetReview(c *gin.Context) {
	review, err := ctrl.reviews.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// CreateReview posts a review as the authenticated user
// POST /api/v1/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	req, image, ok := ctrl.bindReview(c)
	if !ok {
		return
	}

	review, err := ctrl.reviews.CreateReview(c.Request.Context(), uid, req.input(), image)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "create review")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// UpdateReview edits the caller's own review
// PUT /api/v1/reviews/:id
func (ctrl *ReviewController) UpdateReview(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	req, image, ok := ctrl.bindReview(c)
	if !ok {
		return
	}

	review, err := ctrl.reviews.EditReview(c.Request.Context(), c.Param("id"), uid, req.input(), image, req.RemoveImage)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// DeleteReview deletes the caller's own review
// DELETE /api/v1/reviews/:id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.reviews.DeleteReview(c.Request.Context(), c.Param("id"), uid); err != nil {
		apperrors.RespondWithDomainError(c, err, "delete review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// ToggleLike likes or unlikes a review as the authenticated user
// POST /api/v1/reviews/:id/like
func (ctrl *ReviewController) ToggleLike(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	review, err := ctrl.reviews.ToggleLike(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"review":    review,
		"liked":     review.IsLikedBy(uid),
		"likeCount": review.LikeCount(),
	})
}
