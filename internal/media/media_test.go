package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSniffDetectsTypeAndDimensions(t *testing.T) {
	img := testImage(80, 60)

	var jpg, g, wp bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, img, &jpeg.Options{Quality: 80}))
	require.NoError(t, gif.Encode(&g, img, nil))
	require.NoError(t, webp.Encode(&wp, img, &webp.Options{Quality: 80}))

	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{name: "png", data: encodePNG(t, img), mime: "image/png"},
		{name: "jpeg", data: jpg.Bytes(), mime: "image/jpeg"},
		{name: "gif", data: g.Bytes(), mime: "image/gif"},
		{name: "webp", data: wp.Bytes(), mime: "image/webp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Sniff(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.mime, info.MIME)
			assert.Equal(t, 80, info.Width)
			assert.Equal(t, 60, info.Height)
			assert.Equal(t, len(tt.data), info.Size)
		})
	}
}

func TestSniffRejectsNonImages(t *testing.T) {
	_, err := Sniff([]byte("<html><body>not an image</body></html>"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Sniff(nil)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSniffRejectsMislabeledBytes(t *testing.T) {
	// A PNG magic number followed by garbage sniffs as PNG but won't decode.
	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xAB}, 64)...)
	_, err := Sniff(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSniffRejectsOversizedFiles(t *testing.T) {
	_, err := Sniff(make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPreviewScalesDownAndReencodes(t *testing.T) {
	data := encodePNG(t, testImage(1600, 900))

	preview, err := Preview(data, 640)
	require.NoError(t, err)

	info, err := Sniff(preview)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", info.MIME)
	assert.Equal(t, 640, info.Width)
	assert.Equal(t, 360, info.Height)
	assert.Less(t, info.Size, len(data))
}

func TestPreviewKeepsSmallImagesUnscaled(t *testing.T) {
	data := encodePNG(t, testImage(100, 50))

	preview, err := Preview(data, 640)
	require.NoError(t, err)

	info, err := Sniff(preview)
	require.NoError(t, err)
	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 50, info.Height)
}
