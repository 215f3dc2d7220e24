package errors

import (
	"strings"
	"unicode"
)

const (
	maxNodeIDLength = 2048
	maxQueryLength  = 256
)

// ValidateNodeID validates a concept identifier before it is placed in a
// request path. Identifiers are URIs, so slashes and colons are allowed;
// empty strings, control characters and oversized ids are not.
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidateSearchQuery validates a free-text search query.
func ValidateSearchQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidQuery, "search query cannot be empty")
	}
	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidQuery, "search query too long (max %d characters)", maxQueryLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidQuery, "search query contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
