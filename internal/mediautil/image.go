package mediautil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	domainerrors "github.com/ckeepapp/ckeep-whatsapp-go/internal/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxImageDimension caps the longest side of images sent to the vision
// models. Coupon details stay legible well below this.
const maxImageDimension = 1024

const jpegQuality = 85

// NormalizeImage decodes an inbound image and re-encodes it as a JPEG no
// larger than maxImageDimension on its longest side. Images already within
// bounds are still re-encoded so the extractor always receives JPEG.
func NormalizeImage(data []byte) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image (%v): %w", err, domainerrors.ErrMediaUnsupported)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxImageDimension || height > maxImageDimension {
		scale := float64(maxImageDimension) / float64(max(width, height))
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
