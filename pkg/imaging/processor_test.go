package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestProcessDownscalesAndThumbnails(t *testing.T) {
	p := NewProcessor(Options{MaxWidth: 100, ThumbnailWidth: 32})

	result, err := p.Process(samplePNG(t, 200, 120), true)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Image.Width)
	assert.Equal(t, 60, result.Image.Height)

	cfg, err := webp.DecodeConfig(bytes.NewReader(result.Image.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)

	require.NotNil(t, result.Thumbnail)
	assert.Equal(t, 32, result.Thumbnail.Width)
	assert.Equal(t, 32, result.Thumbnail.Height)
}

func TestProcessKeepsSmallImages(t *testing.T) {
	p := NewProcessor(Options{MaxWidth: 500})

	result, err := p.Process(samplePNG(t, 80, 40), false)
	require.NoError(t, err)
	assert.Equal(t, 80, result.Image.Width)
	assert.Nil(t, result.Thumbnail)
}

func TestProcessRejectsNonImages(t *testing.T) {
	p := NewProcessor(Options{})

	_, err := p.Process([]byte("%PDF-1.4 not an image"), false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = p.Process(nil, false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
