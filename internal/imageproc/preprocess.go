// Package imageproc turns uploaded image bytes into the float tensor the
// classifier expects.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// DecodeError means the upload is not an image we can read.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Options struct {
	// Size is the square edge the model takes.
	Size int
	// ChannelsFirst selects NCHW instead of NHWC ordering.
	ChannelsFirst bool
	// Interpolation is handed to nfnt/resize; the zero value is NearestNeighbor.
	Interpolation resize.InterpolationFunction
}

// Decode reads JPEG, PNG or GIF bytes.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Err: errors.New("empty image")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", &DecodeError{Err: fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())}
	}
	return img, format, nil
}

// Preprocess decodes data and converts it to a Size×Size×3 tensor with values in [0,1].
func Preprocess(data []byte, opts Options) ([]float32, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Tensor(img, opts)
}

// Tensor resizes img and converts it to normalised RGB floats.
func Tensor(img image.Image, opts Options) ([]float32, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", opts.Size)
	}

	size := uint(opts.Size)
	resized := resize.Resize(size, size, img, opts.Interpolation)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != opts.Size || height != opts.Size {
		return nil, fmt.Errorf("resize produced %dx%d, expected %dx%d", width, height, opts.Size, opts.Size)
	}

	plane := width * height
	inputData := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			pixelIndex := y*width + x
			if opts.ChannelsFirst {
				inputData[pixelIndex] = rNorm
				inputData[plane+pixelIndex] = gNorm
				inputData[2*plane+pixelIndex] = bNorm
			} else {
				inputData[3*pixelIndex] = rNorm
				inputData[3*pixelIndex+1] = gNorm
				inputData[3*pixelIndex+2] = bNorm
			}
		}
	}

	return inputData, nil
}
