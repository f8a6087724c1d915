package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/util"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		resource   string
		wantStatus int
		wantCode   string
	}{
		{name: "Review not found", err: fmt.Errorf("%w: review r1", model.ErrNotFound), resource: "review", wantStatus: http.StatusNotFound, wantCode: ReviewNotFound},
		{name: "Restaurant not found", err: model.ErrNotFound, resource: "get restaurant", wantStatus: http.StatusNotFound, wantCode: RestaurantNotFound},
		{name: "Generic not found", err: model.ErrNotFound, resource: "", wantStatus: http.StatusNotFound, wantCode: ResourceNotFound},
		{name: "Forbidden", err: model.ErrForbidden, resource: "review", wantStatus: http.StatusForbidden, wantCode: AuthzOwnerOnly},
		{name: "Duplicate email", err: model.ErrEmailAlreadyExists, resource: "user", wantStatus: http.StatusConflict, wantCode: AuthEmailAlreadyExists},
		{name: "Bad credentials", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: AuthInvalidCredentials},
		{name: "Bad rating", err: fmt.Errorf("%w: rating must be between 1 and 5", model.ErrInvalidArgument), wantStatus: http.StatusBadRequest, wantCode: ReviewInvalidRating},
		{name: "Large image", err: fmt.Errorf("%w: image exceeds 10 bytes", model.ErrInvalidArgument), wantStatus: http.StatusBadRequest, wantCode: UploadFileTooLarge},
		{name: "Blank field", err: fmt.Errorf("%w: userName must not be blank", model.ErrInvalidArgument), wantStatus: http.StatusBadRequest, wantCode: ValidationRequired},
		{name: "Expired token", err: util.ErrExpiredToken, wantStatus: http.StatusUnauthorized, wantCode: AuthTokenExpired},
		{name: "Unavailable", err: model.ErrUnavailable, wantStatus: http.StatusServiceUnavailable, wantCode: InternalUnavailable},
		{name: "Deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: InternalExternalAPI},
		{name: "Network", err: fmt.Errorf("dial tcp: connection refused"), wantStatus: http.StatusBadGateway, wantCode: InternalExternalAPI},
		{name: "Unknown", err: fmt.Errorf("boom"), resource: "create review", wantStatus: http.StatusInternalServerError, wantCode: InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.resource)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_KeepsValidationDetail(t *testing.T) {
	info := ParseError(fmt.Errorf("%w: rating must be between 1 and 5", model.ErrInvalidArgument), "review")
	assert.Equal(t, "rating must be between 1 and 5", info.Message)
}

func TestRespondWithDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithDomainError(c, fmt.Errorf("%w: review r1", model.ErrNotFound), "review")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"REVIEW_NOT_FOUND","message":"Review not found"}`, w.Body.String())
}
