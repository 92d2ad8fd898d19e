package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrAuthFailed means the refresh token was rejected or the retry after a
	// refresh was still unauthorized. Terminal until the mall re-installs.
	ErrAuthFailed = errors.New("gateway: authorization failed, mall must re-install")

	// ErrUpstreamTimeout is a network-level timeout. Safe for the caller to
	// retry with backoff; no credential state was committed.
	ErrUpstreamTimeout = errors.New("gateway: upstream request timed out")
)

// UpstreamError is a non-auth error response from the platform, propagated
// with its original status and body so business errors are never reinterpreted.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gateway: upstream returned %d: %s", e.Status, e.Body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
