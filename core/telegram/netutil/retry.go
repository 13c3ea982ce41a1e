package netutil

import (
	"errors"
	"net"
	"syscall"
)

// ShouldRetry reports whether err is a transient transport failure worth
// another attempt: timeouts, dial failures and connection resets.
// API-level errors (4xx, 5xx replies) are never retried here.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return false
}
