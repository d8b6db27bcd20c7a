// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError is a failure talking to a geocoding service.
type GeocodingError struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status, 0 when no response was received
	Err        error
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit too many requests.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection or deadline timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound endpoint or resource not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest rejected request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network failure or unavailable service.
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeNetworkError:   "network_error",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status=%d", msg, e.StatusCode)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.StatusCode
	}

	return 0
}

// IsRateLimitError reports whether err is caused by rate limiting.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is caused by an exhausted quota.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError converts a non successful HTTP status into a GeocodingError.
func ClassifyHTTPError(statusCode int, body string) *GeocodingError {
	geoErr := &GeocodingError{StatusCode: statusCode}

	switch statusCode {
	case http.StatusTooManyRequests:
		geoErr.Type = ErrorTypeRateLimit
		geoErr.Message = "rate limit reached"
	case http.StatusUnauthorized, http.StatusForbidden:
		geoErr.Type = ErrorTypeQuotaExceeded
		geoErr.Message = "quota exceeded or access denied"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		geoErr.Type = ErrorTypeInvalidRequest
		geoErr.Message = "invalid request"
	case http.StatusNotFound:
		geoErr.Type = ErrorTypeNotFound
		geoErr.Message = "not found"
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		geoErr.Type = ErrorTypeNetworkError
		geoErr.Message = "service unavailable"
	default:
		geoErr.Type = ErrorTypeUnknown
		geoErr.Message = "error while fetching"
	}

	if body = strings.TrimSpace(body); body != "" {
		geoErr.Err = errors.New(body)
	}

	return geoErr
}
