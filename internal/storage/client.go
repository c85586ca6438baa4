// Package storage talks to the hosted object store and layers the retrying
// upload gateway on top of it. Objects are addressed by bucket-relative keys
// and served back through stable public URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"racenotes/internal/logging"
	"racenotes/internal/media"
	"racenotes/internal/services"
)

// Client issues requests against a Supabase-compatible storage API.
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOptions configures the storage client.
type ClientOptions struct {
	// URL is the project base URL, e.g. https://abc.supabase.co.
	URL    string
	APIKey string
	Bucket string
	// Timeout bounds each individual request. Zero selects a default.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient validates the options and builds a client.
func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "client", "storage URL is required", nil)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "client", "storage API key is required", nil)
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "client", "storage bucket is required", nil)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
		bucket:     strings.TrimSpace(opts.Bucket),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(opts.Logger, "storage"),
	}, nil
}

// Put stores the payload under the given bucket-relative key.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	endpoint := c.objectEndpoint(key)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return services.Wrap(services.ErrUpload, "storage", "put", "", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("x-upsert", "false")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "put", "", err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return c.statusError("put", key, response)
	}
	c.logger.Debug("object stored",
		logging.String("key", key),
		logging.Int("bytes", len(data)),
	)
	return nil
}

// PublicURL returns the stable public URL for a stored object.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, escapeKey(key))
}

// Delete removes the object stored under key.
func (c *Client) Delete(ctx context.Context, key string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectEndpoint(key), nil)
	if err != nil {
		return services.Wrap(services.ErrUpload, "storage", "delete", "", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "delete", "", err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return c.statusError("delete", key, response)
	}
	c.logger.Debug("object deleted", logging.String("key", key))
	return nil
}

// DeleteByURL resolves a public URL back to its key and deletes the object.
// URLs pointing at other buckets or hosts are rejected.
func (c *Client) DeleteByURL(ctx context.Context, publicURL string) error {
	key, err := c.KeyFromURL(publicURL)
	if err != nil {
		return err
	}
	return c.Delete(ctx, key)
}

// KeyFromURL extracts the bucket-relative key from a public URL issued by
// PublicURL.
func (c *Client) KeyFromURL(publicURL string) (string, error) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", c.baseURL, c.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", services.Wrap(services.ErrValidation, "storage", "key-from-url",
			fmt.Sprintf("URL does not reference bucket %q", c.bucket), nil)
	}
	escaped := strings.TrimPrefix(publicURL, prefix)
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "storage", "key-from-url", "malformed URL escape", err)
	}
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "storage", "key-from-url", "empty object key", nil)
	}
	return key, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string { return c.bucket }

func (c *Client) objectEndpoint(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(key))
}

func (c *Client) statusError(operation, key string, response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
	marker := services.ErrUpload
	if response.StatusCode >= 500 || response.StatusCode == http.StatusTooManyRequests {
		marker = services.ErrTransient
	}
	detail := strings.TrimSpace(string(body))
	message := fmt.Sprintf("key %q: status %d", key, response.StatusCode)
	if detail != "" {
		message += ": " + detail
	}
	return services.Wrap(marker, "storage", operation, message, nil)
}

// escapeKey escapes each path segment while keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// ContentTypeFor maps a filename to the MIME type sent with uploads.
func ContentTypeFor(filename string) string {
	ext := media.NormalizedExtension(filename)
	if known := mime.TypeByExtension(ext); known != "" {
		return known
	}
	switch ext {
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".heic", ".heif":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
