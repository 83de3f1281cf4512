package qp

import (
	"errors"
	"fmt"
)

// ErrResolutionTimeout is returned when identifier polling exceeds the
// configured ceiling without every requested platform reporting an id.
var ErrResolutionTimeout = errors.New("status pulling timeout")

// APIError is a non-success response from the aggregation API. The remote
// message is passed through when available.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("qp api returned status %d: %s", e.StatusCode, e.Message)
}
