package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrOfflineMiss is returned when offline mode is on and the cache has no entry.
	ErrOfflineMiss = errors.New("offline mode: no cached data for key")
	// ErrTransport marks network-level failures (connection, timeout, body read).
	ErrTransport = errors.New("transport error")
)

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d body %s", e.Status, truncate(e.Body, 256))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
