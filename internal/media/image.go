// Package media validates uploaded X-ray images and prepares them for preview.
package media

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrEmpty           = errors.New("empty upload")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// TooLargeError reports an upload over the configured size limit. Size is
// zero when the upload was cut off before its size was known.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Size <= 0 {
		return fmt.Sprintf("image exceeds the %s limit", humanize.IBytes(uint64(e.Limit)))
	}
	return fmt.Sprintf("image is %s, the limit is %s", humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}

// Image is an accepted upload with its metadata stripped.
type Image struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`

	data []byte
}

// Inspect validates an upload and returns the image that will be analysed
// and previewed. maxBytes <= 0 disables the size check.
func Inspect(filename string, data []byte, maxBytes int64) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &TooLargeError{Size: int64(len(data)), Limit: maxBytes}
	}

	contentType := http.DetectContentType(data)
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	stripped, err := stripMetadata(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	sum := blake2b.Sum256(stripped)
	return &Image{
		Filename:    SanitizeFilename(filename),
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Bytes:       len(stripped),
		Fingerprint: hex.EncodeToString(sum[:]),
		data:        stripped,
	}, nil
}

// Data returns the stripped image bytes.
func (img *Image) Data() []byte {
	return img.data
}

// Decode decodes the stripped image.
func (img *Image) Decode() (image.Image, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", img.ContentType, err)
	}
	return decoded, nil
}

// Size returns the stripped size in human readable form.
func (img *Image) Size() string {
	return humanize.IBytes(uint64(img.Bytes))
}

// SanitizeFilename removes path components and control bytes
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "xray"
	}
	return name
}
