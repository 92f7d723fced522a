package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotConfigured   = errors.New("integration is not configured")
	ErrUnknownWorkflow = errors.New("unknown workflow")
)

// UpstreamError is returned when a vendor API answers with a non-success status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// truncate keeps stored vendor responses to a readable size. The result is
// always valid UTF-8, since Postgres rejects anything else in text columns.
func truncate(s string, max int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
