package normalize

import (
	"image"
)

// ChannelOrder is the channel layout expected by the model
type ChannelOrder string

const (
	BGR ChannelOrder = "bgr"
	RGB ChannelOrder = "rgb"
)

// Tensor is an NHWC float32 tensor with batch size 1
type Tensor struct {
	Data  []float32
	Shape [4]int64 // 1, height, width, 3
}

// Height returns the spatial height
func (t Tensor) Height() int {
	return int(t.Shape[1])
}

// Width returns the spatial width
func (t Tensor) Width() int {
	return int(t.Shape[2])
}

// ShapeSlice returns the shape in the form the runtime expects
func (t Tensor) ShapeSlice() []int64 {
	return t.Shape[:]
}

// FromImage divides 8-bit pixel values by 255 and adds a leading batch dimension
func FromImage(img *image.RGBA, order ChannelOrder) Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, 0, w*h*3)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < w; x++ {
			r := float32(row[x*4]) / 255.0
			g := float32(row[x*4+1]) / 255.0
			bl := float32(row[x*4+2]) / 255.0
			if order == BGR {
				data = append(data, bl, g, r)
			} else {
				data = append(data, r, g, bl)
			}
		}
	}

	return Tensor{
		Data:  data,
		Shape: [4]int64{1, int64(h), int64(w), 3},
	}
}
