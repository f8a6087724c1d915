package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	apperrors "github.com/IdoNaor1/TasteClub/internal/errors"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
)

type AuthController struct {
	auth repository.AuthRepository
}

func NewAuthController(auth repository.AuthRepository) *AuthController {
	return &AuthController{auth: auth}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	UserName string `json:"userName"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type UpdateProfileRequest struct {
	UserName *string `json:"userName"`
	Bio      *string `json:"bio"`
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration details")
		return
	}

	user, tokens, err := ctrl.auth.Register(c.Request.Context(), req.Email, req.Password, req.UserName)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid login details")
		return
	}

	user, tokens, err := ctrl.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "refreshToken is required")
		return
	}

	tokens, err := ctrl.auth.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the caller's access token and, when given, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.auth.Logout(c.Request.Context(), middleware.GetAccessToken(c), req.RefreshToken); err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPassword mails a password reset link
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A valid email is required")
		return
	}

	if err := ctrl.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// ResetPassword sets a new password with a reset token
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "token and newPassword are required")
		return
	}

	if err := ctrl.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// GetMe returns the authenticated user's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.auth.GetUser(c.Request.Context(), uid)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe applies a partial profile update
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile details")
		return
	}

	user, err := ctrl.auth.UpdateProfile(c.Request.Context(), uid, model.ProfileUpdate{
		UserName: req.UserName,
		Bio:      req.Bio,
	})
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfileImage replaces the profile image with the multipart "image" file
// PUT /api/v1/auth/me/profile-image
func (ctrl *AuthController) UpdateProfileImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	image, err := readImage(c)
	if err != nil {
		log.Warn("Invalid profile image upload", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return
	}
	if image == nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "image file is required")
		return
	}

	user, err := ctrl.auth.UpdateProfileImage(c.Request.Context(), uid, image)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteProfileImage removes the profile image
// DELETE /api/v1/auth/me/profile-image
func (ctrl *AuthController) DeleteProfileImage(c *gin.Context) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.auth.RemoveProfileImage(c.Request.Context(), uid)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
