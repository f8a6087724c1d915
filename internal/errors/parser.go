package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/util"
)

// ErrorInfo is the client-facing form of an error.
type ErrorInfo struct {
	Status  int
	Code    string // see codes.go
	Message string
}

// ParseError maps err onto a status, code and message. resource names what
// the request operated on ("review", "restaurant", "user") and picks the
// specific not-found code. Internal details never reach the message.
func ParseError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(resource)}
	}

	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: notFoundCode(resource), Message: getNotFoundMessage(resource)}

	case errors.Is(err, model.ErrForbidden):
		return ErrorInfo{Status: http.StatusForbidden, Code: AuthzOwnerOnly, Message: "Only the author can change this " + resourceName(resource)}

	case errors.Is(err, model.ErrEmailAlreadyExists):
		return ErrorInfo{Status: http.StatusConflict, Code: AuthEmailAlreadyExists, Message: "This email is already registered"}

	case errors.Is(err, model.ErrInvalidCredentials):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthInvalidCredentials, Message: "Invalid email or password"}

	case errors.Is(err, model.ErrInvalidResetToken):
		return ErrorInfo{Status: http.StatusBadRequest, Code: AuthResetTokenInvalid, Message: "The reset link is invalid or has expired"}

	case errors.Is(err, util.ErrExpiredToken):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthTokenExpired, Message: "Token has expired"}

	case errors.Is(err, util.ErrInvalidToken):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthTokenInvalid, Message: "Invalid token"}

	case errors.Is(err, model.ErrInvalidArgument):
		return parseInvalidArgument(err)

	case errors.Is(err, model.ErrUnavailable):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: InternalUnavailable, Message: "This feature is not available right now"}

	case errors.Is(err, context.DeadlineExceeded):
		return ErrorInfo{Status: http.StatusGatewayTimeout, Code: InternalExternalAPI, Message: "The request timed out. Please try again later"}
	}

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "unavailable") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "Failed to reach an upstream service. Please try again later",
		}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: getDefaultErrorMessage(resource)}
}

// parseInvalidArgument keeps the validation detail, which is safe to show.
func parseInvalidArgument(err error) ErrorInfo {
	msg := err.Error()
	detail := strings.TrimPrefix(msg, model.ErrInvalidArgument.Error()+": ")
	lower := strings.ToLower(detail)

	code := ValidationInvalidInput
	switch {
	case strings.Contains(lower, "rating"):
		code = ReviewInvalidRating
	case strings.Contains(lower, "image"):
		code = UploadInvalidFileType
		if strings.Contains(lower, "exceeds") {
			code = UploadFileTooLarge
		}
	case strings.Contains(lower, "blank"), strings.Contains(lower, "required"):
		code = ValidationRequired
	case strings.Contains(lower, " id "), strings.HasSuffix(lower, " id"):
		code = ValidationInvalidID
	case strings.Contains(lower, "limit"), strings.Contains(lower, "radius"):
		code = ValidationInvalidRange
	}
	return ErrorInfo{Status: http.StatusBadRequest, Code: code, Message: detail}
}

func notFoundCode(resource string) string {
	switch resourceName(resource) {
	case "review":
		return ReviewNotFound
	case "restaurant":
		return RestaurantNotFound
	case "place":
		return PlaceNotFound
	case "user":
		return UserNotFound
	}
	return ResourceNotFound
}

func getNotFoundMessage(resource string) string {
	switch resourceName(resource) {
	case "review":
		return "Review not found"
	case "restaurant":
		return "Restaurant not found"
	case "place":
		return "Place not found"
	case "user":
		return "User not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(resource string) string {
	lower := strings.ToLower(resource)
	switch {
	case strings.Contains(lower, "create"):
		return "Failed to create. Please try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update. Please try again later"
	case strings.Contains(lower, "delete"):
		return "Failed to delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// resourceName reduces a context such as "delete review" to "review".
func resourceName(resource string) string {
	lower := strings.ToLower(resource)
	for _, name := range []string{"review", "restaurant", "place", "user"} {
		if strings.Contains(lower, name) {
			return name
		}
	}
	return "resource"
}
