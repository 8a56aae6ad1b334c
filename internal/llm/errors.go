package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrUpstreamUnavailable indicates the model provider could not serve the request.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamTimeout indicates the model provider did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// Classify maps a provider error onto the upstream taxonomy. Caller
// cancellation is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}

// Transient reports whether err looks like a passing provider failure that a
// client may retry later.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUpstreamTimeout) || isTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "status code: 5") || strings.Contains(msg, "status code: 429") ||
		strings.Contains(msg, "server_error") || strings.Contains(msg, "rate limit") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "client.timeout") || strings.Contains(msg, "tls handshake timeout")
}
