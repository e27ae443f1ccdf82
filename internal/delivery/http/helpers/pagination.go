package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"eventlisting/internal/domain"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

// ParsePagination reads from and size from the query string. from must be zero or
// positive and size positive; size is capped at MaxSize. Bad values are ErrInvalidInput.
func ParsePagination(r *http.Request) (domain.PaginationParams, error) {
	params := domain.PaginationParams{From: 0, Size: DefaultSize}
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return params, fmt.Errorf("%w: from must be a non-negative integer", domain.ErrInvalidInput)
		}
		params.From = v
	}
	if s := q.Get("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return params, fmt.Errorf("%w: size must be a positive integer", domain.ErrInvalidInput)
		}
		params.Size = min(v, MaxSize)
	}
	return params, nil
}
