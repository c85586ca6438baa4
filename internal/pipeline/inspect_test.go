package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"racenotes/internal/media"
	"racenotes/internal/media/ffprobe"
	"racenotes/internal/services"
)

func jpegFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestInspectImage(t *testing.T) {
	inspector := NewInspector("", t.TempDir(), false)
	payload := jpegFixture(t, 64, 48)

	info, err := inspector.Inspect(context.Background(), Item{Filename: "grid.jpg", Data: payload})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Kind != media.KindImage || info.Width != 64 || info.Height != 48 {
		t.Fatalf("info = %+v", info)
	}
	if info.Format != "jpeg" {
		t.Fatalf("format = %q", info.Format)
	}
	if info.SizeBytes != int64(len(payload)) {
		t.Fatalf("size = %d", info.SizeBytes)
	}
}

func TestInspectVideoWithProbe(t *testing.T) {
	restore := SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", Width: 1920, Height: 1080, RFrameRate: "60/1"}},
			Format:  ffprobe.Format{Duration: "42.5", FormatName: "mov,mp4,m4a"},
		}, nil
	})
	defer restore()

	inspector := NewInspector("ffprobe", t.TempDir(), true)
	info, err := inspector.Inspect(context.Background(), Item{Filename: "onboard.mp4", Data: []byte("mp4")})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("dims = %dx%d", info.Width, info.Height)
	}
	if info.DurationSeconds != 42.5 || info.FrameRate != 60 {
		t.Fatalf("info = %+v", info)
	}
}

func TestInspectVideoWithoutBackend(t *testing.T) {
	inspector := NewInspector("", t.TempDir(), false)
	info, err := inspector.Inspect(context.Background(), Item{Filename: "clip.mov", Data: []byte("raw")})
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Kind != media.KindVideo || info.Width != 0 || info.DurationSeconds != 0 {
		t.Fatalf("info = %+v, want size-only metadata", info)
	}
}

func TestInspectRejectsUnknownExtension(t *testing.T) {
	inspector := NewInspector("", t.TempDir(), false)
	_, err := inspector.Inspect(context.Background(), Item{Filename: "log.txt", Data: []byte("x")})
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("error = %v, want ErrClassification", err)
	}
}
