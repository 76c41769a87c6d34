package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// ErrInvalidImage is returned for files that are missing, of an unsupported
// format, or cannot be decoded
var ErrInvalidImage = errors.New("invalid or unreadable image")

var supportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Frame is a single decoded image from a file or a camera still
type Frame struct {
	Image  image.Image
	Source string
}

// Width returns frame width in pixels
func (f Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns frame height in pixels
func (f Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Channels returns the color channel count the pipeline works with
func (f Frame) Channels() int {
	if _, ok := f.Image.(*image.Gray); ok {
		return 1
	}
	return 3
}

// Supported reports whether the path has an accepted image extension
func Supported(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Load decodes a jpg/jpeg/png/bmp file into a Frame
func Load(path string) (Frame, error) {
	if !Supported(path) {
		return Frame{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: failed to decode %s: %w", ErrInvalidImage, path, err)
	}
	if img.Bounds().Empty() {
		return Frame{}, fmt.Errorf("%w: empty image %s", ErrInvalidImage, path)
	}

	return Frame{Image: Opaque(img), Source: path}, nil
}

// Opaque drops the alpha channel, keeping the stored color of every pixel.
// Images without transparency are returned unchanged.
func Opaque(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
