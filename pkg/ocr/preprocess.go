package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// Decode reads an image in any format imaging understands (png, jpeg, tiff, gif, bmp).
// EXIF orientation is honoured so phone photos come out upright.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	return img, nil
}

// Normalize converts img to grayscale, stretches its contrast and removes speckle
// noise with a 3x3 median filter. cutoff is the percentage of darkest and lightest
// pixels ignored when computing the contrast range (0 keeps every pixel).
func Normalize(img image.Image, cutoff float64) *image.Gray {
	g := gift.New(
		gift.Grayscale(),
		autoContrastFilter{cutoff: cutoff},
		gift.Median(3, false),
	)
	return drawGray(g, img)
}

// NormalizeBytes decodes data and runs Normalize on it.
func NormalizeBytes(data []byte, cutoff float64) (*image.Gray, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(img, cutoff), nil
}

// drawGray runs g over src into a fresh single channel image.
func drawGray(g *gift.GIFT, src image.Image) *image.Gray {
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// autoContrastFilter plugs autoContrast into a gift chain.
type autoContrastFilter struct {
	cutoff float64
}

func (f autoContrastFilter) Bounds(srcBounds image.Rectangle) image.Rectangle {
	return image.Rect(0, 0, srcBounds.Dx(), srcBounds.Dy())
}

func (f autoContrastFilter) Draw(dst draw.Image, src image.Image, _ *gift.Options) {
	gray := drawGray(gift.New(), src)
	out := autoContrast(gray, f.cutoff)
	draw.Draw(dst, dst.Bounds(), out, out.Bounds().Min, draw.Src)
}

// autoContrast maps the darkest remaining level to 0 and the lightest to 255
// after discarding cutoff percent of pixels from each end of the histogram.
func autoContrast(img *image.Gray, cutoff float64) *image.Gray {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}
	if cutoff > 0 {
		total := 0
		for _, n := range hist {
			total += n
		}
		cut := int(float64(total) * cutoff / 100)
		for lo, rem := 0, cut; lo < 256 && rem > 0; lo++ {
			if rem > hist[lo] {
				rem -= hist[lo]
				hist[lo] = 0
			} else {
				hist[lo] -= rem
				rem = 0
			}
		}
		for hi, rem := 255, cut; hi >= 0 && rem > 0; hi-- {
			if rem > hist[hi] {
				rem -= hist[hi]
				hist[hi] = 0
			} else {
				hist[hi] -= rem
				rem = 0
			}
		}
	}
	lo := 0
	for lo < 256 && hist[lo] == 0 {
		lo++
	}
	hi := 255
	for hi >= 0 && hist[hi] == 0 {
		hi--
	}
	out := image.NewGray(img.Bounds())
	if hi <= lo {
		copy(out.Pix, img.Pix)
		return out
	}
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte((i - lo) * 255 / (hi - lo))
	}
	for i, v := range img.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}
