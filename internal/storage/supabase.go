package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vofmun/registrar/internal/log"
)

// SupabaseStore talks to a Supabase-compatible storage service over its
// REST surface. One store is bound to one bucket.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

// NewSupabaseStore builds a store for bucket at baseURL, which should
// point at the /storage/v1 root of the service. The service key is sent
// as a bearer token on every request.
func NewSupabaseStore(baseURL, serviceKey, bucket string, timeout time.Duration) *SupabaseStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureBucket creates the bucket when it does not exist. Creation is
// best effort; a failure here still lets the upload attempt proceed and
// report the authoritative error.
func (s *SupabaseStore) EnsureBucket(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, s.baseURL+"/bucket/"+url.PathEscape(s.bucket), nil, "")
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	drain(resp)
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check bucket: unexpected status %d", resp.StatusCode)
	}

	log.Info(log.CatStorage, "bucket missing, creating", "bucket", s.bucket)
	body, err := json.Marshal(map[string]any{
		"id":     s.bucket,
		"name":   s.bucket,
		"public": true,
	})
	if err != nil {
		return err
	}
	req, err = s.newRequest(ctx, http.MethodPost, s.baseURL+"/bucket", bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	resp, err = s.client.Do(req)
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	drain(resp)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("create bucket: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Upload writes data under key. The service answering 404 or naming a
// missing bucket maps to ErrBucketNotFound.
func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/object/%s/%s", s.baseURL, url.PathEscape(s.bucket), escapeKey(key))
	req, err := s.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(data), contentType)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(string(msg)), "bucket not found") {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, s.bucket)
	}
	return fmt.Errorf("upload object: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

// PublicURL resolves the public read URL for key on a public bucket.
func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, url.PathEscape(s.bucket), escapeKey(key))
}

func (s *SupabaseStore) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// escapeKey escapes each path segment while keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
