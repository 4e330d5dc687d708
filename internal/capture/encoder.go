package capture

import (
	"bytes"
	"image"
	"io"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"bizcard/internal/models"
)

const (
	DefaultMaxDimension = 1600
	DefaultJPEGQuality  = 85
)

// Encoder freezes a video frame into a JPEG still.
type Encoder struct {
	// MaxDimension bounds the longer side in pixels; zero keeps the frame size.
	MaxDimension int
	// Quality is the JPEG quality, 1-100.
	Quality int
	// Enhance boosts contrast and sharpens before encoding, which helps the
	// extraction model with glossy or low-light cards.
	Enhance bool
}

// DefaultEncoder returns the encoder used when none is configured.
func DefaultEncoder() Encoder {
	return Encoder{MaxDimension: DefaultMaxDimension, Quality: DefaultJPEGQuality}
}

// Encode converts img into a JPEG Image.
func (e Encoder) Encode(img image.Image) (models.Image, error) {
	if img == nil {
		return models.Image{}, errors.New("capture: nil frame")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return models.Image{}, errors.New("capture: empty frame")
	}

	out := img
	if e.Enhance {
		out = effect.Sharpen(adjust.Contrast(out, 0.15))
	}
	if e.MaxDimension > 0 && (b.Dx() > e.MaxDimension || b.Dy() > e.MaxDimension) {
		out = imaging.Fit(out, e.MaxDimension, e.MaxDimension, imaging.Lanczos)
	}

	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return models.Image{}, errors.Wrap(err, "failed to encode frame")
	}
	return models.Image{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    out.Bounds().Dx(),
		Height:   out.Bounds().Dy(),
	}, nil
}

// DecodeImage decodes a JPEG, PNG or GIF payload, applying EXIF orientation so
// phone photos arrive upright.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	return img, nil
}
