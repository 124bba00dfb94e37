package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies an upstream failure. The set is closed: every error that
// crosses the client boundary carries exactly one of these kinds.
type Kind string

const (
	// KindUnsupportedRegion means the region code is absent from the routing table.
	KindUnsupportedRegion Kind = "unsupported_region"

	// KindBadRequest covers upstream 400 and any unclassified 4xx.
	KindBadRequest Kind = "bad_request"

	// KindUnauthorized means the API key was rejected (401).
	KindUnauthorized Kind = "unauthorized"

	// KindForbidden means the API key lacks access (403).
	KindForbidden Kind = "forbidden"

	// KindNotFound means the resource does not exist upstream (404).
	KindNotFound Kind = "not_found"

	// KindRateLimited means every key in the rotation was throttled (429).
	KindRateLimited Kind = "rate_limited"

	// KindUpstreamServer covers 5xx other than 503 and transport failures.
	KindUpstreamServer Kind = "upstream_server"

	// KindServiceUnavailable means the upstream reported maintenance (503).
	KindServiceUnavailable Kind = "service_unavailable"
)

// serviceUnavailableCooldown is the retry advice attached to 503 responses.
const serviceUnavailableCooldown = 60 * time.Second

// Error is the single error type produced by the client. RetryAfter is set
// for the rate_limited and service_unavailable kinds.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("riot %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("riot %s (status %d)", e.Kind, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry at its own discretion.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindUpstreamServer, KindServiceUnavailable:
		return true
	default:
		return false
	}
}

// HTTPStatus maps the kind to the gateway-facing HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnsupportedRegion, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// upstreamStatus is the error body shape the Riot API uses.
type upstreamStatus struct {
	Status struct {
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"status"`
}

// upstreamMessage extracts the authoritative error text from a response body:
// the nested status.message when present, otherwise the raw body text.
func upstreamMessage(body []byte) string {
	var parsed upstreamStatus
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Status.Message != "" {
		return parsed.Status.Message
	}
	return strings.TrimSpace(string(body))
}

// ddragonVersionHint is appended to 403 messages for Data Dragon URLs, where
// a 403 usually means the floating version alias is not servable.
const ddragonVersionHint = "Data Dragon returned 403; request a concrete version instead of a floating alias"

// classifyStatus maps a non-2xx upstream response to a typed error. reqURL is
// inspected only for the Data Dragon 403 hint, a best-effort message
// enhancement rather than a classification mechanism.
func classifyStatus(status int, body []byte, reqURL string) *Error {
	msg := upstreamMessage(body)

	switch {
	case status == http.StatusBadRequest:
		if msg == "" {
			msg = "bad request to upstream API"
		}
		return &Error{Kind: KindBadRequest, StatusCode: status, Message: msg}
	case status == http.StatusUnauthorized:
		if msg == "" {
			msg = "API key rejected by upstream"
		}
		return &Error{Kind: KindUnauthorized, StatusCode: status, Message: msg}
	case status == http.StatusForbidden:
		if strings.Contains(reqURL, "ddragon") {
			if msg != "" {
				msg += "; "
			}
			msg += ddragonVersionHint
		}
		return &Error{Kind: KindForbidden, StatusCode: status, Message: msg}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, StatusCode: status, Message: msg}
	case status == http.StatusServiceUnavailable:
		return &Error{Kind: KindServiceUnavailable, StatusCode: status, Message: msg, RetryAfter: serviceUnavailableCooldown}
	case status >= 500:
		return &Error{Kind: KindUpstreamServer, StatusCode: status, Message: msg}
	default:
		return &Error{Kind: KindBadRequest, StatusCode: status, Message: msg}
	}
}

// Classify coerces an arbitrary error into the closed taxonomy. Errors that
// already carry a kind pass through unchanged; anything else is treated as a
// transient upstream failure.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*Error); ok {
		return apiErr
	}
	return &Error{
		Kind:       KindUpstreamServer,
		StatusCode: http.StatusBadGateway,
		Message:    err.Error(),
		Err:        err,
	}
}
