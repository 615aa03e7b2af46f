package bnnctl

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// PackBits packs pixels row-major, eight per byte, most significant bit
// first, padding the tail with zeros up to size bytes.
func PackBits(pixels []bool, size int) ([]byte, error) {
	if len(pixels) > size*8 {
		return nil, errors.Errorf("pack: %d pixels do not fit in %d bytes", len(pixels), size)
	}
	out := make([]byte, size)
	for i, on := range pixels {
		if on {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out, nil
}

// UnpackBits is the inverse of PackBits for the first n pixels.
func UnpackBits(packed []byte, n int) []bool {
	if n > len(packed)*8 {
		n = len(packed) * 8
	}
	pixels := make([]bool, n)
	for i := range pixels {
		pixels[i] = packed[i/8]&(0x80>>(i%8)) != 0
	}
	return pixels
}

// LoadBitmap reads an image file and turns it into a packed bitmap sized
// for the controller's buffer.
func LoadBitmap(path string, cfg Config) ([]byte, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	if mat.Empty() {
		return nil, errors.Errorf("bitmap: cannot read image %s", path)
	}
	defer mat.Close()
	return bitmapFromMat(mat, cfg)
}

// DecodeBitmap accepts either an already packed bitmap of exactly the
// buffer size or an encoded image (PNG, JPEG, BMP) to binarize.
func DecodeBitmap(payload []byte, cfg Config) ([]byte, error) {
	if len(payload) == cfg.Capacity() {
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}
	mat, err := gocv.IMDecode(payload, gocv.IMReadGrayScale)
	if err != nil {
		return nil, errors.Wrap(err, "bitmap: decode")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Errorf("bitmap: %d byte payload is neither packed nor a known image format", len(payload))
	}
	return bitmapFromMat(mat, cfg)
}

func bitmapFromMat(mat gocv.Mat, cfg Config) ([]byte, error) {
	w, h := cfg.BitmapWidth, cfg.BitmapHeight

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(mat, &small, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	_min, _max, _, _ := gocv.MinMaxLoc(small)
	debugf("bitmap: resized %dx%d -> %dx%d, min/max %v/%v", mat.Cols(), mat.Rows(), w, h, _min, _max)

	binary := gocv.NewMat()
	defer binary.Close()
	if _min == _max {
		// Otsu has no split point on a flat image.
		gocv.Threshold(small, &binary, 127, 255, gocv.ThresholdBinary)
	} else {
		gocv.Threshold(small, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	}

	pixels := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels[y*w+x] = binary.GetUCharAt(y, x) != 0
		}
	}
	return PackBits(pixels, cfg.Capacity())
}

// BitmapMat renders a packed bitmap as an 8 bit image, 255 for set pixels.
// The caller closes the result.
func BitmapMat(packed []byte, cfg Config) (gocv.Mat, error) {
	w, h := cfg.BitmapWidth, cfg.BitmapHeight
	if len(packed)*8 < w*h {
		return gocv.NewMat(), errors.Errorf("bitmap: %d bytes cannot hold %dx%d pixels", len(packed), w, h)
	}
	mat := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	for i, on := range UnpackBits(packed, w*h) {
		if on {
			mat.SetUCharAt(i/w, i%w, 255)
		}
	}
	return mat, nil
}
