package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/powerbrief-dev/powerbrief/internal/metrics"
)

// SupabaseStore talks to the Supabase Storage REST API with the service key.
// The bucket is expected to be public.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (s *SupabaseStore) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)
}

func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}

func (s *SupabaseStore) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	return req, nil
}

func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, content io.Reader) (_ string, err error) {
	defer func() { metrics.ObserveCall("supabase_storage", err) }()

	if err := validKey(key); err != nil {
		return "", err
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL(key), content)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("storage upload returned status %d: %s", resp.StatusCode, body)
	}

	return s.PublicURL(key), nil
}

func (s *SupabaseStore) Get(ctx context.Context, key string) (_ io.ReadCloser, err error) {
	defer func() { metrics.ObserveCall("supabase_storage", err) }()

	if err := validKey(key); err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		resp.Body.Close()
		return nil, ErrObjectNotFound
	case resp.StatusCode >= 400:
		resp.Body.Close()
		return nil, fmt.Errorf("storage download returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, key string) (err error) {
	defer func() { metrics.ObserveCall("supabase_storage", err) }()

	if err := validKey(key); err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("storage delete returned status %d", resp.StatusCode)
	}
	return nil
}
