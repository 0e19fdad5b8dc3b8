// Package provider defines the translation provider implementations.
package provider

import (
	"strings"

	"github.com/ZaguanLabs/vertrans"
)

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = vertrans.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = vertrans.TranslateRequest

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"too many requests",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"503",
		"502",
		"504",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
