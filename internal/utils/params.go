package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUUIDParam reads a path parameter that must be a UUID.
func GetUUIDParam(ctx *gin.Context, name string) (string, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return "", fmt.Errorf("%s not found", paramLabel(name))
	}

	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("Invalid %s", paramLabel(name))
	}

	return raw, nil
}

func GetBrandID(ctx *gin.Context) (string, error) {
	return GetUUIDParam(ctx, "brand_id")
}

// paramLabel turns "creator_id" into "Creator ID" for error messages.
func paramLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "id" {
			words[i] = "ID"
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// NormalizeURL trims the input and makes sure it carries an http(s) scheme.
func NormalizeURL(input string) (string, error) {
	raw := strings.TrimSpace(input)

	if raw == "" {
		return "", errors.New("input cannot be empty")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", errors.New("invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("URL must use http or https")
	}

	if parsed.Hostname() == "" {
		return "", errors.New("no hostname found in URL")
	}

	return parsed.String(), nil
}

// AppendURLParams merges a query string such as "utm_source=meta&utm_medium=paid"
// into destination, keeping parameters already present on destination.
func AppendURLParams(destination, params string) (string, error) {
	params = strings.TrimPrefix(strings.TrimSpace(params), "?")
	if params == "" {
		return destination, nil
	}

	parsed, err := url.Parse(destination)
	if err != nil {
		return "", fmt.Errorf("invalid destination URL: %w", err)
	}

	extra, err := url.ParseQuery(params)
	if err != nil {
		return "", fmt.Errorf("invalid URL params: %w", err)
	}

	query := parsed.Query()
	for key, values := range extra {
		if query.Has(key) {
			continue
		}
		for _, v := range values {
			query.Add(key, v)
		}
	}

	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
