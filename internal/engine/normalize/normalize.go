package normalize

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gen2brain/heic"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// allowedFormats is the set of raster formats accepted after sniffing.
// HEIC/HEIF input is transcoded before it reaches this check.
var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
	"webp": true,
}

// Normalizer decodes arbitrary receipt photo bytes into a canonical pixel
// buffer. It is a pure function over the input bytes: no disk or network I/O.
type Normalizer struct {
	logger      logger.Logger
	maxBytes    int64
	maxWidth    int
	maxHeight   int
	heicSupport bool
}

// Options bounds the images the normalizer will accept.
type Options struct {
	MaxBytes    int64
	MaxWidth    int
	MaxHeight   int
	HEICSupport bool
}

// NewNormalizer creates a normalizer with the given limits. Zero limits get
// the defaults from the original deployment (50 MB, 5000x5000).
func NewNormalizer(log logger.Logger, opts Options) *Normalizer {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 50 * 1024 * 1024
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 5000
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 5000
	}
	return &Normalizer{
		logger:      log,
		maxBytes:    opts.MaxBytes,
		maxWidth:    opts.MaxWidth,
		maxHeight:   opts.MaxHeight,
		heicSupport: opts.HEICSupport,
	}
}

// HEIC reports whether legacy container transcoding is enabled.
func (n *Normalizer) HEIC() bool { return n.heicSupport }

// IsLegacyContainer reports whether the bytes carry an ISO-BMFF ftyp box at
// offset 4, the signature of HEIC/HEIF photos from mobile cameras.
func IsLegacyContainer(data []byte) bool {
	return len(data) >= 12 && string(data[4:8]) == "ftyp"
}

// Normalize validates and decodes image bytes. HEIC input is transcoded
// first; a failed transcode is a hard error, never a silent skip.
func (n *Normalizer) Normalize(data []byte) (image.Image, string, error) {
	if int64(len(data)) > n.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds limit of %d", models.ErrInvalidImage, len(data), n.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", models.ErrInvalidImage)
	}

	if IsLegacyContainer(data) {
		if !n.heicSupport {
			return nil, "", fmt.Errorf("%w: heic support not available", models.ErrContainerDecode)
		}
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", models.ErrContainerDecode, err)
		}
		n.logger.Info("transcoded HEIC container",
			logger.Int("width", img.Bounds().Dx()),
			logger.Int("height", img.Bounds().Dy()),
		)
		if err := n.checkDimensions(img.Bounds()); err != nil {
			return nil, "", err
		}
		return img, "heic", nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: undecodable image: %v", models.ErrInvalidImage, err)
	}
	if !allowedFormats[format] {
		return nil, "", fmt.Errorf("%w: unsupported format %q", models.ErrInvalidImage, format)
	}
	if cfg.Width > n.maxWidth || cfg.Height > n.maxHeight {
		return nil, "", fmt.Errorf("%w: dimensions %dx%d exceed %dx%d",
			models.ErrInvalidImage, cfg.Width, cfg.Height, n.maxWidth, n.maxHeight)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode failed: %v", models.ErrInvalidImage, err)
	}
	return img, format, nil
}

func (n *Normalizer) checkDimensions(bounds image.Rectangle) error {
	if bounds.Dx() > n.maxWidth || bounds.Dy() > n.maxHeight {
		return fmt.Errorf("%w: dimensions %dx%d exceed %dx%d",
			models.ErrInvalidImage, bounds.Dx(), bounds.Dy(), n.maxWidth, n.maxHeight)
	}
	return nil
}
