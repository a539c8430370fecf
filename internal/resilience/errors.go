package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// TransientError wraps an error that is safe to retry (429, 5xx, timeouts).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// StatusError builds the error for a non-2xx HTTP response from service. The
// result is a TransientError when the status is retryable.
func StatusError(service string, statusCode int, body string) error {
	if len(body) > 512 {
		body = body[:512]
	}
	err := eris.Errorf("%s: unexpected status %d: %s", service, statusCode, strings.TrimSpace(body))
	if IsTransientHTTPStatus(statusCode) {
		return NewTransientError(err, statusCode)
	}
	return err
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err, or any error in its chain, is worth
// retrying: an explicit TransientError, a network timeout, a dropped
// connection, or a message matching a known transport failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
