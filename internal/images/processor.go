// Package images implements the photo upload pipeline: MIME gate, decode,
// proportional downscale and write to the public uploads directory.
package images

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrUnsupportedType is returned for uploads whose MIME type is not image/*.
var ErrUnsupportedType = errors.New("that file type isn't allowed")

// maxWidth is the width photos are scaled down to, height proportional.
const maxWidth = 800

// Processor validates uploaded photos and writes resized copies under
// generated filenames.
type Processor struct {
	dir string
}

// NewProcessor creates a Processor writing to dir, creating it if needed.
func NewProcessor(dir string) (*Processor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", dir, err)
	}
	return &Processor{dir: dir}, nil
}

// Dir returns the uploads directory.
func (p *Processor) Dir() string {
	return p.dir
}

// Process rejects non-image uploads before reading the file, then decodes
// it, scales it down to maxWidth preserving aspect ratio and writes it
// under a fresh uuid filename. It returns the generated filename. A request
// without a photo must not reach Process; a missing photo is not an error.
func (p *Processor) Process(fh *multipart.FileHeader) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded photo: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode photo: %w", err)
	}
	img = scaleDown(img)

	// The extension follows the decoded format, not the client-supplied
	// name, so the filename can never carry path segments.
	filename := uuid.New().String() + "." + extensionFor(format)
	path := filepath.Join(p.dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := encode(out, img, format); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return filename, nil
}

// scaleDown resizes the image to maxWidth with proportional height. Images
// already narrower than maxWidth are returned unchanged.
func scaleDown(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= maxWidth {
		return src
	}
	h := b.Dy() * maxWidth / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// extensionFor maps a decoded format to the stored extension. Formats
// without an encoder (webp) are re-encoded as JPEG.
func extensionFor(format string) string {
	switch format {
	case "png":
		return "png"
	case "gif":
		return "gif"
	default:
		return "jpg"
	}
}

func encode(out *os.File, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(out, img)
	case "gif":
		return gif.Encode(out, img, nil)
	default:
		return jpeg.Encode(out, img, &jpeg.Options{Quality: 80})
	}
}
