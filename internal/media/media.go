// Package media validates image attachments before upload and renders the
// small webp previews shown while the upload is in flight. Rejecting bad
// files client-side saves a round trip that would end in a 422 anyway.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxUploadBytes mirrors the backend's upload cap.
	MaxUploadBytes = 10 * 1024 * 1024

	// PreviewMaxSize bounds the longest edge of a generated preview.
	PreviewMaxSize = 640

	previewQuality = 70
)

var (
	ErrTooLarge    = errors.New("media: file exceeds the upload size limit")
	ErrUnsupported = errors.New("media: unsupported file type")
	ErrCorrupt     = errors.New("media: file does not decode as its claimed type")
)

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var formatMIMEs = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Info describes a sniffed attachment.
type Info struct {
	MIME   string
	Width  int
	Height int
	Size   int
}

// Sniff inspects raw file bytes and reports the detected type and pixel
// dimensions. The type comes from the content, never from the filename.
func Sniff(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrCorrupt
	}
	if len(data) > MaxUploadBytes {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	detected := http.DetectContentType(data)
	if !allowedMIMEs[detected] {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, ErrCorrupt
	}
	mime, ok := formatMIMEs[format]
	if !ok || mime != detected {
		return Info{}, fmt.Errorf("%w: sniffed %s, decoded %s", ErrCorrupt, detected, format)
	}

	return Info{MIME: mime, Width: cfg.Width, Height: cfg.Height, Size: len(data)}, nil
}

// Preview renders a webp preview of the image bounded to maxSize on its
// longest edge. Images already within bounds are re-encoded without scaling.
func Preview(data []byte, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = PreviewMaxSize
	}
	if _, err := Sniff(data); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}

	scaled := resizeToFit(src, maxSize, maxSize)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, scaled, &webp.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("media: encoding preview: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeToFit scales src down to fit within maxW x maxH, preserving aspect
// ratio. Images already within bounds are returned unchanged.
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
