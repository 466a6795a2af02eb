// Package imageproc prepares uploaded photos for storage: downscaling and
// re-encoding anything over the size threshold, and generating the
// collision-resistant storage keys blobs are saved under.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxBytes is the size threshold below which files pass through
	// untouched.
	DefaultMaxBytes = 2 * 1024 * 1024

	// maxDimension caps the larger side of a re-encoded image.
	maxDimension = 1920

	// jpegQuality matches the original collection app's canvas encoder
	// setting of 0.8.
	jpegQuality = 80
)

// Compression failures are fatal to the upload flow; callers must not fall
// back to uploading the original file. Each stage fails distinctly.
var (
	ErrRead   = errors.New("could not read file")
	ErrDecode = errors.New("could not decode image")
	ErrEncode = errors.New("could not encode image")
)

// File is the outcome of Compress: the (possibly re-encoded) content under
// the original name. ModTime is set when the content was re-encoded and zero
// when the file passed through unchanged.
type File struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Compress reads an image from r and, if it exceeds maxBytes, decodes it,
// scales it so that neither dimension exceeds 1920 pixels (preserving aspect
// ratio), and re-encodes it as JPEG. Files at or under the threshold are
// returned byte-for-byte unchanged to avoid needless quality loss. A
// maxBytes <= 0 selects DefaultMaxBytes.
func Compress(name string, r io.Reader, maxBytes int64) (*File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	if int64(len(data)) <= maxBytes {
		return &File{Name: name, Data: data}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := scaleToCap(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &File{Name: name, Data: buf.Bytes(), ModTime: time.Now()}, nil
}

// scaleToCap shrinks img so its larger dimension equals maxDimension, dividing
// the smaller dimension proportionally. Images already within the cap are
// returned as-is.
func scaleToCap(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxDimension
		newHeight = int(float64(height) * float64(maxDimension) / float64(width))
	} else {
		newHeight = maxDimension
		newWidth = int(float64(width) * float64(maxDimension) / float64(height))
	}

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}
