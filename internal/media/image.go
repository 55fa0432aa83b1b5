package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"media-explorer/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif" // AVIF support
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp" // WebP support
)

const (
	// JPEGQuality is used for every cached thumbnail.
	JPEGQuality = 82

	// PreviewQuality is used when a full-size original is converted for
	// browsers that cannot display it.
	PreviewQuality = 90

	// MaxImagePixels guards the pure Go decoder against decompression bombs.
	// A 20MP RGBA bitmap is roughly 80MB.
	MaxImagePixels = 20_000_000
)

// ImageThumbnailer turns an image file into a JPEG that fits a square box.
type ImageThumbnailer struct {
	caps Capabilities
}

// NewImageThumbnailer creates a thumbnailer bound to the given capabilities.
func NewImageThumbnailer(caps Capabilities) *ImageThumbnailer {
	return &ImageThumbnailer{caps: caps}
}

// Generate decodes path, shrinks it to fit size x size keeping the aspect
// ratio, flattens transparency onto white and encodes a JPEG. Images already
// smaller than the box are not enlarged.
func (t *ImageThumbnailer) Generate(ctx context.Context, path string, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.caps.ImageDecoder {
		return nil, fmt.Errorf("%w: image decoding disabled", ErrUnsupportedImage)
	}

	isHEIF := heifExtensions[ext(path)]
	if isHEIF && !t.caps.HEIFDecoder {
		return nil, fmt.Errorf("%w: no HEIF decoder for %s", ErrUnsupportedImage, filepath.Base(path))
	}

	if t.caps.Vips {
		data, err := thumbnailWithVips(path, size)
		if err == nil {
			return data, nil
		}
		if isHEIF {
			return nil, err
		}
		logging.Debug("vips thumbnail failed for %s: %v, trying Go decoders", path, err)
	}

	return thumbnailWithImaging(path, size)
}

func thumbnailWithVips(path string, size int) ([]byte, error) {
	ref, err := loadWithVips(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	if scale := fitScale(ref.Width(), ref.Height(), size); scale < 1 {
		if err := ref.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}
	return exportJPEGWithVips(ref, JPEGQuality)
}

func loadWithVips(path string) (*vips.ImageRef, error) {
	params := vips.NewImportParams()
	params.AutoRotate.Set(true)
	params.FailOnError.Set(false)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	return ref, nil
}

// exportJPEGWithVips flattens alpha onto white, converts to sRGB and encodes.
func exportJPEGWithVips(ref *vips.ImageRef, quality int) ([]byte, error) {
	if ref.HasAlpha() {
		if err := ref.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("vips flatten failed: %w", err)
		}
	}
	if err := ref.ToColorSpace(vips.InterpretationSRGB); err != nil {
		return nil, fmt.Errorf("vips colorspace conversion failed: %w", err)
	}

	ep := vips.NewJpegExportParams()
	ep.Quality = quality
	ep.OptimizeCoding = true
	ep.StripMetadata = true
	data, _, err := ref.ExportJpeg(ep)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}

// NeedsConversion reports whether browsers need path converted before they
// can display it.
func NeedsConversion(path string) bool {
	return heifExtensions[ext(path)]
}

// ConvertToJPEG re-encodes a full-size HEIC/HEIF original as JPEG. It needs
// the HEIF decoder.
func (t *ImageThumbnailer) ConvertToJPEG(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.caps.Vips || !t.caps.HEIFDecoder {
		return nil, fmt.Errorf("%w: no HEIF decoder for %s", ErrUnsupportedImage, filepath.Base(path))
	}
	ref, err := loadWithVips(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()
	return exportJPEGWithVips(ref, PreviewQuality)
}

// fitScale returns the factor that makes w x h fit inside size x size.
func fitScale(w, h, size int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	sw := float64(size) / float64(w)
	sh := float64(size) / float64(h)
	if sw < sh {
		return sw
	}
	return sh
}

func thumbnailWithImaging(path string, size int) ([]byte, error) {
	img, err := loadImageConstrained(path)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Base(path))
		}
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	// Fit only ever shrinks.
	img = imaging.Fit(img, size, size, imaging.Lanczos)

	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// loadImageConstrained decodes path with EXIF orientation applied, refusing
// images whose header announces more than MaxImagePixels.
func loadImageConstrained(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(f)
	if closeErr := f.Close(); closeErr != nil {
		logging.Warn("failed to close image file %s: %v", path, closeErr)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}
