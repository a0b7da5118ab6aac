package enhance

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

func testReceiptImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}
	// A few dark rows standing in for printed lines.
	for _, y := range []int{10, 20, 30, 40} {
		for x := 8; x < 56; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestEnhanceBasic(t *testing.T) {
	e := NewEnhancer(logger.NewTestLogger(), Config{Advanced: false})
	out, mode := e.Enhance(testReceiptImage())
	require.NotNil(t, out)
	assert.Equal(t, "basic", mode)
}

func TestEnhanceAdvanced(t *testing.T) {
	e := NewEnhancer(logger.NewTestLogger(), Config{Advanced: true})
	out, mode := e.Enhance(testReceiptImage())
	require.NotNil(t, out)
	assert.Equal(t, "advanced", mode)
}

func TestEnhanceBasicDownscalesOversized(t *testing.T) {
	e := NewEnhancer(logger.NewTestLogger(), Config{Advanced: false})
	big := image.NewRGBA(image.Rect(0, 0, 2400, 100))
	out, _ := e.Enhance(big)
	assert.LessOrEqual(t, out.Bounds().Dx(), 2000)
	assert.LessOrEqual(t, out.Bounds().Dy(), 2000)
}

func TestPreprocessorChainStages(t *testing.T) {
	img := testReceiptImage()
	stages := []Preprocessor{
		NewGrayscaleProcessor(),
		NewDenoiseProcessor(0.8),
		NewEqualizeProcessor(),
		NewOtsuBinarizeProcessor(),
		NewMorphCloseProcessor(),
		NewDeskewProcessor(15),
	}
	var err error
	current := img
	for _, stage := range stages {
		current, err = stage.Process(current)
		require.NoError(t, err)
		require.NotNil(t, current)
	}
	assert.Equal(t, img.Bounds().Dx(), current.Bounds().Dx())
}

func TestOtsuBinarizeProducesBinaryOutput(t *testing.T) {
	p := NewOtsuBinarizeProcessor()
	out, err := p.Process(testReceiptImage())
	require.NoError(t, err)
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	for _, v := range gray.Pix {
		assert.True(t, v == 0 || v == 255)
	}
}
