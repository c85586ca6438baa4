package services_test

import (
	"errors"
	"testing"

	"racenotes/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpload, "gateway", "put-object", "attempt 5", base)
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected ErrUpload marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "upload error: gateway: put-object: attempt 5: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsTerminal(t *testing.T) {
	if services.IsTerminal(nil) {
		t.Fatal("nil error must not be terminal")
	}
	if services.IsTerminal(services.Wrap(services.ErrTransient, "s", "o", "", nil)) {
		t.Fatal("transient error must not be terminal")
	}
	if !services.IsTerminal(services.Wrap(services.ErrClassification, "pipeline", "classify", "", nil)) {
		t.Fatal("classification error must be terminal")
	}
}
