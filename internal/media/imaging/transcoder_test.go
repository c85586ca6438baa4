package imaging_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"racenotes/internal/media/imaging"
	"racenotes/internal/media/sizing"
)

func newTranscoder(t *testing.T, policy sizing.ImagePolicy) *imaging.Transcoder {
	t.Helper()
	return imaging.NewTranscoder(policy, nil, nil)
}

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func makeNoisyPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeResult(t *testing.T, data []byte) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img, format
}

func TestCompressScalesIntoBoundingBox(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	result := tr.Compress(context.Background(), makeJPEG(t, 3000, 2000), "pitlane.jpg")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	if result.Filename != "pitlane.jpg" {
		t.Fatalf("filename changed to %q", result.Filename)
	}
	img, format := decodeResult(t, result.Data)
	if format != "jpeg" {
		t.Fatalf("unexpected format %q", format)
	}
	if img.Bounds().Dx() != 1620 || img.Bounds().Dy() != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if int64(len(result.Data)) > sizing.DefaultImagePolicy().MaxEncodedBytes {
		t.Fatalf("result exceeds ceiling: %d bytes", len(result.Data))
	}
}

func TestCompressDoesNotUpscale(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	result := tr.Compress(context.Background(), makeJPEG(t, 800, 600), "paddock.jpg")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	img, _ := decodeResult(t, result.Data)
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Fatalf("dimensions altered: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCompressConvertsLargePNGToJPEG(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	payload := makeNoisyPNG(t, 1200, 900)
	if int64(len(payload)) <= sizing.DefaultImagePolicy().PNGConvertBytes {
		t.Fatalf("fixture too small to trigger conversion: %d bytes", len(payload))
	}
	result := tr.Compress(context.Background(), payload, "startgrid.png")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	if result.Filename != "startgrid.jpg" {
		t.Fatalf("expected rename to .jpg, got %q", result.Filename)
	}
	if _, format := decodeResult(t, result.Data); format != "jpeg" {
		t.Fatalf("expected jpeg output, got %q", format)
	}
}

func TestCompressKeepsSmallPNGLossless(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	result := tr.Compress(context.Background(), buf.Bytes(), "logo.png")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	if result.Filename != "logo.png" {
		t.Fatalf("unexpected rename %q", result.Filename)
	}
	if _, format := decodeResult(t, result.Data); format != "png" {
		t.Fatalf("expected png output, got %q", format)
	}
}

func TestCompressSecondPassAtFallbackQuality(t *testing.T) {
	policy := sizing.DefaultImagePolicy()
	policy.MaxEncodedBytes = 1024 // force the aggressive pass
	tr := newTranscoder(t, policy)

	result := tr.Compress(context.Background(), makeJPEG(t, 400, 300), "crowd.jpeg")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	if result.Filename != "crowd.jpg" {
		t.Fatalf("expected .jpg rename after fallback, got %q", result.Filename)
	}
	// The second pass result is returned even if it still exceeds the
	// ceiling; only the attempt is mandated.
	if _, format := decodeResult(t, result.Data); format != "jpeg" {
		t.Fatalf("expected jpeg output, got %q", format)
	}
}

func TestCompressFlattensTransparencyOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	// Opaque red center, fully transparent elsewhere.
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	result := tr.Compress(context.Background(), buf.Bytes(), "sticker.png")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	out, _ := decodeResult(t, result.Data)
	r, g, b, a := out.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("transparent corner not flattened to white: %v %v %v %v", r, g, b, a)
	}
}

func TestCompressAppliesEXIFOrientation(t *testing.T) {
	payload := withEXIFOrientation(t, makeJPEG(t, 100, 50), 6)
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	result := tr.Compress(context.Background(), payload, "apex.jpg")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	img, _ := decodeResult(t, result.Data)
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 100 {
		t.Fatalf("rotation not applied: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCompressCorruptInputIsSkippedNotFatal(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	original := []byte("definitely not an image")
	result := tr.Compress(context.Background(), original, "broken.jpg")
	if !result.Skipped {
		t.Fatal("expected skipped result")
	}
	if !bytes.Equal(result.Data, original) || result.Filename != "broken.jpg" {
		t.Fatal("skipped result must carry the original payload")
	}
	if result.Reason == "" {
		t.Fatal("expected a reason on skipped result")
	}
}

func TestCompressHEICWithoutConverterIsSkipped(t *testing.T) {
	tr := newTranscoder(t, sizing.DefaultImagePolicy())
	result := tr.Compress(context.Background(), []byte{0x0}, "apex.heic")
	if !result.Skipped {
		t.Fatal("expected skipped result for HEIC without converter")
	}
}

func TestCompressHEICWithConverterBecomesJPEG(t *testing.T) {
	converter := func(ctx context.Context, data []byte) ([]byte, error) {
		var buf bytes.Buffer
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	tr := imaging.NewTranscoder(sizing.DefaultImagePolicy(), converter, nil)
	result := tr.Compress(context.Background(), []byte("heic bytes"), "podium.heic")
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.Reason)
	}
	if result.Filename != "podium.jpg" {
		t.Fatalf("expected .jpg rename, got %q", result.Filename)
	}
	if _, format := decodeResult(t, result.Data); format != "jpeg" {
		t.Fatalf("expected jpeg output, got %q", format)
	}
}

func TestCompressHEICConverterFailureIsSkipped(t *testing.T) {
	converter := func(ctx context.Context, data []byte) ([]byte, error) {
		return nil, errors.New("no frame")
	}
	tr := imaging.NewTranscoder(sizing.DefaultImagePolicy(), converter, nil)
	result := tr.Compress(context.Background(), []byte("heic bytes"), "podium.heic")
	if !result.Skipped {
		t.Fatal("expected skipped result on converter failure")
	}
}

// withEXIFOrientation splices a minimal APP1 EXIF segment carrying the given
// orientation directly after the SOI marker.
func withEXIFOrientation(t *testing.T, jpegData []byte, orientation uint16) []byte {
	t.Helper()
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		t.Fatal("fixture is not a JPEG")
	}

	tiff := make([]byte, 0, 26)
	tiff = append(tiff, 'I', 'I')
	tiff = binary.LittleEndian.AppendUint16(tiff, 42)
	tiff = binary.LittleEndian.AppendUint32(tiff, 8) // IFD0 offset
	tiff = binary.LittleEndian.AppendUint16(tiff, 1) // entry count
	tiff = binary.LittleEndian.AppendUint16(tiff, 0x0112)
	tiff = binary.LittleEndian.AppendUint16(tiff, 3) // SHORT
	tiff = binary.LittleEndian.AppendUint32(tiff, 1)
	tiff = binary.LittleEndian.AppendUint16(tiff, orientation)
	tiff = append(tiff, 0, 0)                        // value padding
	tiff = binary.LittleEndian.AppendUint32(tiff, 0) // next IFD

	payload := append([]byte("Exif\x00\x00"), tiff...)
	segment := []byte{0xFF, 0xE1}
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(jpegData)+len(segment))
	out = append(out, jpegData[:2]...)
	out = append(out, segment...)
	out = append(out, jpegData[2:]...)
	return out
}
