package controller

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IdoNaor1/TasteClub/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageParams reads the limit and cursor query parameters. cursor is the
// createdAt (epoch millis) of the last item of the previous page.
func pageParams(c *gin.Context) (int, *int64, error) {
	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, nil, fmt.Errorf("limit must be a positive integer")
		}
		limit = n
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	raw := c.Query("cursor")
	if raw == "" {
		return limit, nil, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("cursor must be an epoch millisecond timestamp")
	}
	return limit, &cursor, nil
}

// readImage returns the bytes of the multipart "image" field, or nil when the
// request has none.
func readImage(c *gin.Context) ([]byte, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > storage.MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", storage.MaxImageSize)
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
}

func parseFloatQuery(c *gin.Context, key string) (float64, bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
	return v, true, nil
}
