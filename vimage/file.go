package vimage

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// WriteImageToFile saves an image to a file, choosing the format from the
// file extension. Unsupported extensions are a validation error.
func WriteImageToFile(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return errors.Errorf("unsupported image file extension %q", ext)
	}
	return errors.Wrapf(imaging.Save(img, path), "error saving image to %q", path)
}

// ReadImageFromFile loads an image from a file.
func ReadImageFromFile(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, errors.Errorf("unsupported image file extension %q", ext)
	}
	img, err := imaging.Open(path)
	return img, errors.Wrapf(err, "error reading image from %q", path)
}

// FrameFromImage converts any image into an RGB frame, for callers feeding
// the compositor from decoded files rather than raw capture buffers.
func FrameFromImage(img image.Image) (*Frame, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}
	b := img.Bounds()
	nrgba := imaging.Clone(img)
	data := make([]uint8, b.Dx()*b.Dy()*3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := nrgba.PixOffset(x, y)
			j := (y*b.Dx() + x) * 3
			data[j] = nrgba.Pix[i]
			data[j+1] = nrgba.Pix[i+1]
			data[j+2] = nrgba.Pix[i+2]
		}
	}
	return NewFrameRGB(data, b.Dx(), b.Dy())
}
