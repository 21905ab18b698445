// Package mediautil prepares inbound media for extraction: pulling text
// and a representative image out of PDF coupons and shrinking photos to a
// size the vision models accept.
package mediautil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	domainerrors "github.com/ckeepapp/ckeep-whatsapp-go/internal/errors"
	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFContent is what a coupon PDF yields for extraction: its plain text
// and, when present, the first embedded image.
type PDFContent struct {
	Text      string
	Image     []byte
	ImageMime string
}

// ExtractPDF pulls the plain text and the first embedded image out of a
// PDF. A PDF with no text and no image yields an error; partial results
// are fine since the extractor works with whatever is available.
func ExtractPDF(data []byte) (*PDFContent, error) {
	content := &PDFContent{}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if text, err := readPlainText(reader); err == nil {
		content.Text = text
	}

	if img, mimeType, err := firstEmbeddedImage(data); err == nil {
		content.Image = img
		content.ImageMime = mimeType
	}

	if content.Text == "" && len(content.Image) == 0 {
		return nil, fmt.Errorf("pdf holds no extractable text or image: %w", domainerrors.ErrMediaUnsupported)
	}
	return content, nil
}

func readPlainText(reader *pdf.Reader) (string, error) {
	r, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

func firstEmbeddedImage(data []byte) ([]byte, string, error) {
	pageImages, err := pdfcpu.ExtractImagesRaw(bytes.NewReader(data), nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, "", err
	}
	for _, images := range pageImages {
		for _, img := range images {
			raw, err := io.ReadAll(img)
			if err != nil {
				continue
			}
			if len(raw) == 0 {
				continue
			}
			return raw, imageMimeType(img.FileType), nil
		}
	}
	return nil, "", fmt.Errorf("no embedded images")
}

func imageMimeType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
