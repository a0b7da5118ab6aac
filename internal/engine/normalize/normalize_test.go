package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeValidPNG(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger(), Options{})
	img, format, err := n.Normalize(pngBytes(t, 32, 24))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestNormalizeRejectsJunk(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger(), Options{})
	_, _, err := n.Normalize([]byte("this is not an image at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestNormalizeRejectsOversizedBytes(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger(), Options{MaxBytes: 64})
	_, _, err := n.Normalize(pngBytes(t, 32, 32))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestNormalizeRejectsOversizedDimensions(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger(), Options{MaxWidth: 16, MaxHeight: 16})
	_, _, err := n.Normalize(pngBytes(t, 32, 8))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidImage)
}

func TestIsLegacyContainer(t *testing.T) {
	heicHeader := []byte{0, 0, 0, 24, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'}
	assert.True(t, IsLegacyContainer(heicHeader))
	assert.False(t, IsLegacyContainer(pngBytes(t, 4, 4)))
	assert.False(t, IsLegacyContainer([]byte("ftyp")))
}

func TestNormalizeCorruptContainer(t *testing.T) {
	// Valid ftyp signature but garbage payload: the transcode must fail
	// with the container sentinel, not the generic invalid-image one.
	data := append([]byte{0, 0, 0, 24, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'},
		bytes.Repeat([]byte{0xFF}, 64)...)
	n := NewNormalizer(logger.NewTestLogger(), Options{HEICSupport: true})
	_, _, err := n.Normalize(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrContainerDecode)
}

func TestNormalizeContainerWithoutSupport(t *testing.T) {
	data := []byte{0, 0, 0, 24, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'}
	n := NewNormalizer(logger.NewTestLogger(), Options{HEICSupport: false})
	_, _, err := n.Normalize(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrContainerDecode)
}
