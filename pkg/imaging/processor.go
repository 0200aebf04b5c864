// Package imaging normalises uploaded photos into web sized WebP renditions.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ContentTypeWebP is the content type of every rendition.
const ContentTypeWebP = "image/webp"

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Options bound rendition sizes. Zero values fall back to defaults.
type Options struct {
	MaxWidth       int
	ThumbnailWidth int
	Quality        float32
}

// Rendition is an encoded image ready for upload.
type Rendition struct {
	Data   []byte
	Width  int
	Height int
}

// Result bundles the full image and its optional thumbnail.
type Result struct {
	Image     Rendition
	Thumbnail *Rendition
}

// Processor decodes, downsizes and re-encodes uploads.
type Processor struct {
	opts Options
}

func NewProcessor(opts Options) *Processor {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1920
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 400
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Processor{opts: opts}
}

// Process converts data to WebP, shrinking it to MaxWidth. A square
// thumbnail is produced when withThumbnail is set.
func (p *Processor) Process(data []byte, withThumbnail bool) (*Result, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	full := src
	if src.Bounds().Dx() > p.opts.MaxWidth {
		full = imaging.Resize(src, p.opts.MaxWidth, 0, imaging.Lanczos)
	}
	fullRendition, err := p.encode(full)
	if err != nil {
		return nil, err
	}

	result := &Result{Image: fullRendition}
	if withThumbnail {
		thumb := imaging.Thumbnail(src, p.opts.ThumbnailWidth, p.opts.ThumbnailWidth, imaging.Lanczos)
		thumbRendition, err := p.encode(thumb)
		if err != nil {
			return nil, err
		}
		result.Thumbnail = &thumbRendition
	}
	return result, nil
}

func (p *Processor) encode(img image.Image) (Rendition, error) {
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: p.opts.Quality}); err != nil {
		return Rendition{}, fmt.Errorf("encode webp: %w", err)
	}
	b := img.Bounds()
	return Rendition{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	switch {
	case strings.Contains(ct, "webp"):
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return img, nil
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "png"), strings.Contains(ct, "gif"):
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return img, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
