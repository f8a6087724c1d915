package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	apperrors "github.com/IdoNaor1/TasteClub/internal/errors"
)

type UserController struct {
	auth    repository.AuthRepository
	reviews repository.ReviewRepository
}

func NewUserController(auth repository.AuthRepository, reviews repository.ReviewRepository) *UserController {
	return &UserController{auth: auth, reviews: reviews}
}

// GetUser returns a public profile
// GET /api/v1/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	user, err := ctrl.auth.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserReviews returns a page of the user's reviews, newest first
// GET /api/v1/users/:id/reviews?limit=&cursor=
func (ctrl *UserController) GetUserReviews(c *gin.Context) {
	limit, cursor, err := pageParams(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}

	page, err := ctrl.reviews.RefreshUserReviewsPage(c.Request.Context(), c.Param("id"), limit, cursor)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, page)
}
