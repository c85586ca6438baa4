package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"racenotes/internal/services"
)

type fakeStore struct {
	failuresLeft int
	putKeys      []string
	putTypes     []string
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.putKeys = append(f.putKeys, key)
	f.putTypes = append(f.putTypes, contentType)
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return services.Wrap(services.ErrTransient, "storage", "put", "simulated outage", nil)
	}
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

func withDeterministicIdentity(t *testing.T) {
	t.Helper()
	sequence := 0
	restoreID := SetObjectIDForTests(func() string {
		sequence++
		return fmt.Sprintf("id%d", sequence)
	})
	t.Cleanup(restoreID)
	restoreClock := SetClockForTests(func() time.Time {
		return time.Date(2026, time.August, 31, 14, 0, 0, 0, time.UTC)
	})
	t.Cleanup(restoreClock)
}

func TestGatewayUploadsFirstTry(t *testing.T) {
	withDeterministicIdentity(t)
	var slept []time.Duration
	restore := SetSleepForTests(func(_ context.Context, d time.Duration) { slept = append(slept, d) })
	defer restore()

	store := &fakeStore{}
	gateway := NewGateway(store, DefaultMaxAttempts, nil)
	url, err := gateway.Upload(context.Background(), []byte("payload"), "lap.jpg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example/2026/08/id1_lap.jpg" {
		t.Fatalf("url = %q", url)
	}
	if len(slept) != 0 {
		t.Fatalf("no delays expected, got %v", slept)
	}
	if store.putTypes[0] != "image/jpeg" {
		t.Fatalf("content type = %q", store.putTypes[0])
	}
}

func TestGatewayRetriesWithFixedDelaysAndFreshKeys(t *testing.T) {
	withDeterministicIdentity(t)
	var slept []time.Duration
	restore := SetSleepForTests(func(_ context.Context, d time.Duration) { slept = append(slept, d) })
	defer restore()

	store := &fakeStore{failuresLeft: 3}
	gateway := NewGateway(store, DefaultMaxAttempts, nil)
	url, err := gateway.Upload(context.Background(), []byte("payload"), "clip.mp4")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example/2026/08/id4_clip.mp4" {
		t.Fatalf("url = %q", url)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("delays = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, slept[i], want[i])
		}
	}
	seen := make(map[string]bool)
	for _, key := range store.putKeys {
		if seen[key] {
			t.Fatalf("key %q reused across attempts", key)
		}
		seen[key] = true
	}
}

func TestGatewayGivesUpAfterMaxAttempts(t *testing.T) {
	withDeterministicIdentity(t)
	var slept []time.Duration
	restore := SetSleepForTests(func(_ context.Context, d time.Duration) { slept = append(slept, d) })
	defer restore()

	store := &fakeStore{failuresLeft: 100}
	gateway := NewGateway(store, DefaultMaxAttempts, nil)
	_, err := gateway.Upload(context.Background(), []byte("payload"), "lap.jpg")
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("error = %v, want ErrUpload", err)
	}
	if !strings.Contains(err.Error(), "after 5 attempts") {
		t.Fatalf("error %q should name the attempt count", err)
	}
	if len(store.putKeys) != 5 {
		t.Fatalf("store called %d times, want exactly 5", len(store.putKeys))
	}
	if len(slept) != 4 {
		t.Fatalf("%d delays recorded, want 4 (no delay after the last attempt)", len(slept))
	}
}

func TestGatewayStopsWhenContextCanceled(t *testing.T) {
	withDeterministicIdentity(t)
	ctx, cancel := context.WithCancel(context.Background())
	restore := SetSleepForTests(func(context.Context, time.Duration) { cancel() })
	defer restore()

	store := &fakeStore{failuresLeft: 100}
	gateway := NewGateway(store, DefaultMaxAttempts, nil)
	_, err := gateway.Upload(ctx, []byte("payload"), "lap.jpg")
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("error = %v, want ErrUpload", err)
	}
	if len(store.putKeys) != 1 {
		t.Fatalf("store called %d times after cancellation, want 1", len(store.putKeys))
	}
}

func TestObjectKeyLayout(t *testing.T) {
	now := time.Date(2026, time.March, 5, 9, 30, 0, 0, time.UTC)
	key := objectKey(now, "7f3a", "pit stop.jpg")
	if key != "2026/03/7f3a_pit stop.jpg" {
		t.Fatalf("key = %q", key)
	}
	pattern := regexp.MustCompile(`^\d{4}/\d{2}/[^/]+_`)
	if !pattern.MatchString(key) {
		t.Fatalf("key %q does not match year/month/id_name layout", key)
	}

	hostile := objectKey(now, "7f3a", "../nested/evil:name.jpg")
	if strings.Count(hostile, "/") != 2 {
		t.Fatalf("sanitized key %q must keep exactly the two partition separators", hostile)
	}
}
