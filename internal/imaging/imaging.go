package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxUploadSize is the largest accepted upload in bytes.
	MaxUploadSize = 5 << 20

	// MaxDimension bounds the width and height of a stored photo.
	MaxDimension = 1024

	// ThumbDimension bounds the width and height of a list thumbnail.
	ThumbDimension = 160

	jpegQuality  = 85
	thumbQuality = 75
)

// ErrTooLarge is returned when the upload exceeds MaxUploadSize.
var ErrTooLarge = errors.New("image larger than 5 MB")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized item photo. Both renditions are JPEG.
type Photo struct {
	Data  []byte
	Thumb []byte
	MIME  string
}

// Prepare validates an upload by sniffing its bytes, bounds it to
// MaxDimension and renders a thumbnail.
func Prepare(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	if detected := http.DetectContentType(data); !accepted[detected] {
		return nil, fmt.Errorf("unsupported image format %s: only JPEG and PNG are accepted", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	full, err := encode(fit(img, MaxDimension), jpegQuality)
	if err != nil {
		return nil, err
	}
	thumb, err := encode(fit(img, ThumbDimension), thumbQuality)
	if err != nil {
		return nil, err
	}

	return &Photo{Data: full, Thumb: thumb, MIME: "image/jpeg"}, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither side exceeds limit, keeping the aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	nw, nh := limit, limit
	if w > h {
		nh = max(1, h*limit/w)
	} else {
		nw = max(1, w*limit/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
