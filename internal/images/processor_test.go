package images_test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabuPro/restaurant-web-app/internal/images"
)

// uploadHeader builds the *multipart.FileHeader a Fiber handler would hand
// the processor, by writing and re-parsing a multipart body.
func uploadHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	require.Len(t, form.File["photo"], 1)
	return form.File["photo"][0]
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func decodeStored(t *testing.T, dir, filename string) image.Image {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, filename))
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestProcessor_ResizesWidePhotos(t *testing.T) {
	dir := t.TempDir()
	processor, err := images.NewProcessor(dir)
	require.NoError(t, err)

	fh := uploadHeader(t, "wide.png", "image/png", pngBytes(t, 1200, 600))
	filename, err := processor.Process(fh)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".png"))
	assert.NotEqual(t, "wide.png", filename)

	stored := decodeStored(t, dir, filename)
	assert.Equal(t, 800, stored.Bounds().Dx())
	assert.Equal(t, 400, stored.Bounds().Dy())
}

func TestProcessor_KeepsSmallPhotos(t *testing.T) {
	dir := t.TempDir()
	processor, err := images.NewProcessor(dir)
	require.NoError(t, err)

	fh := uploadHeader(t, "small.png", "image/png", pngBytes(t, 300, 200))
	filename, err := processor.Process(fh)
	require.NoError(t, err)

	stored := decodeStored(t, dir, filename)
	assert.Equal(t, 300, stored.Bounds().Dx())
	assert.Equal(t, 200, stored.Bounds().Dy())
}

func TestProcessor_RejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	processor, err := images.NewProcessor(dir)
	require.NoError(t, err)

	fh := uploadHeader(t, "notes.txt", "text/plain", []byte("not a photo"))
	_, err = processor.Process(fh)
	assert.ErrorIs(t, err, images.ErrUnsupportedType)

	// Nothing got written for the rejected upload
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessor_RejectsCorruptImages(t *testing.T) {
	dir := t.TempDir()
	processor, err := images.NewProcessor(dir)
	require.NoError(t, err)

	fh := uploadHeader(t, "broken.png", "image/png", []byte("pretend png"))
	_, err = processor.Process(fh)
	assert.Error(t, err)
}
