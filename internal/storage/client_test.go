package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"racenotes/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientOptions{
		URL:    server.URL,
		APIKey: "service-key",
		Bucket: "racing-notes-media",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestClientPutSendsAuthorizedRequest(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.Put(context.Background(), "2026/08/abc_lap.jpg", []byte("jpeg bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if gotPath != "/storage/v1/object/racing-notes-media/2026/08/abc_lap.jpg" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotContentType != "image/jpeg" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if string(gotBody) != "jpeg bytes" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestClientPutClassifiesStatusCodes(t *testing.T) {
	status := http.StatusInternalServerError
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	err := client.Put(context.Background(), "k", nil, "image/jpeg")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("5xx should be transient, got %v", err)
	}

	status = http.StatusForbidden
	err = client.Put(context.Background(), "k", nil, "image/jpeg")
	if !errors.Is(err, services.ErrUpload) || errors.Is(err, services.ErrTransient) {
		t.Fatalf("4xx should be a plain upload error, got %v", err)
	}
}

func TestClientPublicURLRoundTripsThroughKeyFromURL(t *testing.T) {
	client, server := newTestClient(t, http.NotFoundHandler())
	key := "2026/08/abc_pit stop.jpg"
	publicURL := client.PublicURL(key)
	if !strings.HasPrefix(publicURL, server.URL+"/storage/v1/object/public/racing-notes-media/") {
		t.Fatalf("unexpected public URL %q", publicURL)
	}
	if strings.Contains(publicURL, " ") {
		t.Fatalf("public URL must escape spaces: %q", publicURL)
	}
	got, err := client.KeyFromURL(publicURL)
	if err != nil {
		t.Fatalf("KeyFromURL: %v", err)
	}
	if got != key {
		t.Fatalf("key = %q, want %q", got, key)
	}
}

func TestClientKeyFromURLRejectsForeignURLs(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.KeyFromURL("https://elsewhere.example/storage/v1/object/public/racing-notes-media/k.jpg")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("foreign host should fail validation, got %v", err)
	}
}

func TestClientDeleteByURL(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	publicURL := client.PublicURL("2026/08/abc_clip.mp4")
	if err := client.DeleteByURL(context.Background(), publicURL); err != nil {
		t.Fatalf("DeleteByURL: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %q", gotMethod)
	}
	if gotPath != "/storage/v1/object/racing-notes-media/2026/08/abc_clip.mp4" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestNewClientValidatesOptions(t *testing.T) {
	for name, opts := range map[string]ClientOptions{
		"missing URL":    {APIKey: "k", Bucket: "b"},
		"missing key":    {URL: "https://x.supabase.co", Bucket: "b"},
		"missing bucket": {URL: "https://x.supabase.co", APIKey: "k"},
	} {
		if _, err := NewClient(opts); !errors.Is(err, services.ErrConfiguration) {
			t.Errorf("%s: error = %v, want ErrConfiguration", name, err)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"lap.jpg":   "image/jpeg",
		"track.png": "image/png",
		"clip.mp4":  "video/mp4",
		"clip.mov":  "video/quicktime",
		"clip.avi":  "video/x-msvideo",
		"raw.bin":   "application/octet-stream",
	}
	for filename, want := range cases {
		if got := ContentTypeFor(filename); !strings.HasPrefix(got, want) {
			t.Errorf("ContentTypeFor(%q) = %q, want prefix %q", filename, got, want)
		}
	}
}
