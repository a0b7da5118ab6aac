package enhance

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Preprocessor is one stage of the image cleanup chain.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// GrayscaleProcessor converts to a single luminance channel.
type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor { return &GrayscaleProcessor{} }

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

// DenoiseProcessor applies a light gaussian blur to suppress sensor noise
// before thresholding.
type DenoiseProcessor struct {
	strength float64
}

func NewDenoiseProcessor(strength float64) *DenoiseProcessor {
	return &DenoiseProcessor{strength: strength}
}

func (p *DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	if p.strength <= 0 {
		return img, nil
	}
	return imaging.Blur(img, p.strength), nil
}

// EqualizeProcessor spreads the luminance histogram over the full range,
// a cheap stand-in for local contrast equalization on receipt paper.
type EqualizeProcessor struct{}

func NewEqualizeProcessor() *EqualizeProcessor { return &EqualizeProcessor{} }

func (p *EqualizeProcessor) Process(img image.Image) (image.Image, error) {
	gray := toGray(img)
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil, fmt.Errorf("empty image")
	}

	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}

	// Cumulative distribution mapped back onto [0,255].
	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(math.Round(float64(cum) * 255 / float64(total)))
	}

	out := image.NewGray(bounds)
	for i, v := range gray.Pix {
		out.Pix[i] = lut[v]
	}
	return out, nil
}

// OtsuBinarizeProcessor picks the global threshold that maximizes
// between-class variance and binarizes around it.
type OtsuBinarizeProcessor struct{}

func NewOtsuBinarizeProcessor() *OtsuBinarizeProcessor { return &OtsuBinarizeProcessor{} }

func (p *OtsuBinarizeProcessor) Process(img image.Image) (image.Image, error) {
	gray := toGray(img)
	threshold := otsuThreshold(gray)

	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for i, v := range gray.Pix {
		if v > threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out, nil
}

func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := len(gray.Pix)
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVariance float64
	best := 128
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}
	return uint8(best)
}

// MorphCloseProcessor runs a 3x3 dilation followed by erosion on a binary
// image, filling pinholes and speckle left by thresholding.
type MorphCloseProcessor struct{}

func NewMorphCloseProcessor() *MorphCloseProcessor { return &MorphCloseProcessor{} }

func (p *MorphCloseProcessor) Process(img image.Image) (image.Image, error) {
	gray := toGray(img)
	dilated := morph3x3(gray, func(a, b uint8) uint8 {
		if a > b {
			return a
		}
		return b
	})
	closed := morph3x3(dilated, func(a, b uint8) uint8 {
		if a < b {
			return a
		}
		return b
	})
	return closed, nil
}

func morph3x3(src *image.Gray, pick func(a, b uint8) uint8) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					v = pick(v, src.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y)
				}
			}
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: v})
		}
	}
	return out
}

// DeskewProcessor estimates the skew of the dark foreground via its
// second-order central moments and rotates the image back. Angles beyond
// the limit are assumed to be misdetections and left alone.
type DeskewProcessor struct {
	angleLimit float64
}

func NewDeskewProcessor(angleLimit float64) *DeskewProcessor {
	return &DeskewProcessor{angleLimit: angleLimit}
}

func (p *DeskewProcessor) Process(img image.Image) (image.Image, error) {
	angle := p.detectSkewAngle(toGray(img))
	if angle == 0 || math.Abs(angle) > p.angleLimit {
		return img, nil
	}
	return imaging.Rotate(img, -angle, color.White), nil
}

func (p *DeskewProcessor) detectSkewAngle(gray *image.Gray) float64 {
	bounds := gray.Bounds()

	// Sample dark (foreground) pixels; receipts are dark text on light paper.
	var n, sumX, sumY float64
	step := 2
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			if gray.GrayAt(x, y).Y < 128 {
				n++
				sumX += float64(x)
				sumY += float64(y)
			}
		}
	}
	if n < 100 {
		return 0
	}
	meanX, meanY := sumX/n, sumY/n

	var mXX, mYY, mXY float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			if gray.GrayAt(x, y).Y < 128 {
				dx := float64(x) - meanX
				dy := float64(y) - meanY
				mXX += dx * dx
				mYY += dy * dy
				mXY += dx * dy
			}
		}
	}
	if mXX == mYY && mXY == 0 {
		return 0
	}

	// Orientation of the dominant axis of the foreground point cloud.
	angle := 0.5 * math.Atan2(2*mXY, mXX-mYY) * 180 / math.Pi

	// Text lines run horizontally; fold the axis onto the nearest horizontal.
	if angle > 45 {
		angle -= 90
	} else if angle < -45 {
		angle += 90
	}
	return angle
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return out
}
