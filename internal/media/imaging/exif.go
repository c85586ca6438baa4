package imaging

import (
	"encoding/binary"
	"image"
)

// jpegOrientation extracts the EXIF orientation tag (1-8) from a JPEG
// payload. Returns 0 when no orientation is present or the metadata is
// malformed; malformed EXIF is treated as "no orientation", matching camera
// files with stripped or truncated metadata.
func jpegOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0
	}
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return 0
		}
		marker := data[offset+1]
		// Standalone markers carry no length.
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			offset += 2
			continue
		}
		if marker == 0xDA || marker == 0xD9 { // start of scan / end of image
			return 0
		}
		segmentLen := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if segmentLen < 2 || offset+2+segmentLen > len(data) {
			return 0
		}
		if marker == 0xE1 {
			segment := data[offset+4 : offset+2+segmentLen]
			if o := exifOrientation(segment); o > 0 {
				return o
			}
		}
		offset += 2 + segmentLen
	}
	return 0
}

// exifOrientation walks a TIFF structure inside an APP1 segment looking for
// tag 0x0112 in IFD0.
func exifOrientation(segment []byte) int {
	const exifHeader = "Exif\x00\x00"
	if len(segment) < len(exifHeader)+8 || string(segment[:len(exifHeader)]) != exifHeader {
		return 0
	}
	tiff := segment[len(exifHeader):]

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return 0
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return 0
	}

	ifdOffset := int(order.Uint32(tiff[4:8]))
	if ifdOffset < 8 || ifdOffset+2 > len(tiff) {
		return 0
	}
	entryCount := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	for i := 0; i < entryCount; i++ {
		entry := ifdOffset + 2 + i*12
		if entry+12 > len(tiff) {
			return 0
		}
		tag := order.Uint16(tiff[entry : entry+2])
		if tag != 0x0112 {
			continue
		}
		valueType := order.Uint16(tiff[entry+2 : entry+4])
		if valueType != 3 { // SHORT
			return 0
		}
		orientation := int(order.Uint16(tiff[entry+8 : entry+10]))
		if orientation < 1 || orientation > 8 {
			return 0
		}
		return orientation
	}
	return 0
}

// applyOrientation rewrites pixel data so it matches the intended display
// orientation indicated by the EXIF tag.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}
	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()

	dstWidth, dstHeight := srcWidth, srcHeight
	if orientation >= 5 {
		dstWidth, dstHeight = srcHeight, srcWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			var sx, sy int
			switch orientation {
			case 2: // mirror horizontal
				sx, sy = srcWidth-1-x, y
			case 3: // rotate 180
				sx, sy = srcWidth-1-x, srcHeight-1-y
			case 4: // mirror vertical
				sx, sy = x, srcHeight-1-y
			case 5: // transpose
				sx, sy = y, x
			case 6: // rotate 90 clockwise
				sx, sy = y, srcHeight-1-x
			case 7: // transverse
				sx, sy = srcWidth-1-y, srcHeight-1-x
			case 8: // rotate 90 counter-clockwise
				sx, sy = srcWidth-1-y, x
			}
			dst.Set(x, y, img.At(bounds.Min.X+sx, bounds.Min.Y+sy))
		}
	}
	return dst
}
