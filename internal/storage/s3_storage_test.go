package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestS3Storage_FileURL(t *testing.T) {
	ctx := context.Background()

	direct := NewS3Storage(ctx, "eu-central-1", "bucket", "key", "secret", "")
	assert.Equal(t, "https://bucket.s3.eu-central-1.amazonaws.com/review_images/r1.jpg", direct.FileURL("review_images/r1.jpg"))

	cdn := NewS3Storage(ctx, "eu-central-1", "bucket", "key", "secret", "https://cdn.example.com")
	assert.Equal(t, "https://cdn.example.com/profile_images/u1.jpg", cdn.FileURL("profile_images/u1.jpg"))
}

func TestIsObjectNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no such key", err: &types.NoSuchKey{}, want: true},
		{name: "not found", err: fmt.Errorf("wrapped: %w", &types.NotFound{}), want: true},
		{name: "generic api not found", err: &smithy.GenericAPIError{Code: "NotFound"}, want: true},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isObjectNotFound(tt.err))
		})
	}
}
