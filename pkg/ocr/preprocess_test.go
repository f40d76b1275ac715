package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

func TestAutoContrastStretchesRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0] = 100
	img.Pix[1] = 150
	out := autoContrast(img, 0)
	if out.Pix[0] != 0 || out.Pix[1] != 255 {
		t.Fatalf("expected 0/255 got %d/%d", out.Pix[0], out.Pix[1])
	}
}

func TestAutoContrastFlatImageUnchanged(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 77
	}
	out := autoContrast(img, 0)
	for i, v := range out.Pix {
		if v != 77 {
			t.Fatalf("pixel %d changed to %d", i, v)
		}
	}
}

func TestAutoContrastCutoffIgnoresOutliers(t *testing.T) {
	// 1 dark outlier among 100 pixels; a 1% cutoff drops it from the range.
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	for i := 50; i < 100; i++ {
		img.Pix[i] = 100
	}
	img.Pix[0] = 0
	out := autoContrast(img, 1)
	if out.Pix[50] != 0 {
		t.Fatalf("expected 100 to map to 0 with cutoff, got %d", out.Pix[50])
	}
	if out.Pix[1] != 255 {
		t.Fatalf("expected 200 to map to 255, got %d", out.Pix[1])
	}
}

func TestMedianFilterRemovesSpeckle(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Pix[2*5+2] = 0
	out := drawGray(gift.New(gift.Median(3, false)), img)
	if out.Pix[2*5+2] != 255 {
		t.Fatalf("speckle survived: %d", out.Pix[2*5+2])
	}
}

func TestMedianFilterKeepsStroke(t *testing.T) {
	// a 3px wide vertical stroke survives a 3x3 median
	img := image.NewGray(image.Rect(0, 0, 7, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			v := uint8(255)
			if x >= 2 && x <= 4 {
				v = 0
			}
			img.Pix[y*7+x] = v
		}
	}
	out := drawGray(gift.New(gift.Median(3, false)), img)
	if out.Pix[3*7+3] != 0 || out.Pix[0] != 255 {
		t.Fatalf("stroke not preserved: center=%d corner=%d", out.Pix[3*7+3], out.Pix[0])
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	img := imaging.New(20, 10, color.NRGBA{120, 60, 30, 255})
	for x := 0; x < 20; x++ {
		img.Set(x, 5, color.NRGBA{10, 10, 10, 255})
	}
	a := Normalize(img, 0)
	b := Normalize(img, 0)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("normalize output differs between runs")
	}
	if a.Bounds().Dx() != 20 || a.Bounds().Dy() != 10 {
		t.Fatalf("unexpected bounds %v", a.Bounds())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := NormalizeBytes([]byte("not an image"), 0)
	if !errors.Is(err, ErrInvalidImageFormat) {
		t.Fatalf("expected ErrInvalidImageFormat got %v", err)
	}
}

type fakeRecognizer struct {
	text string
	err  error
	got  image.Image
}

func (f *fakeRecognizer) Recognize(_ context.Context, img image.Image) (string, error) {
	f.got = img
	return f.text, f.err
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextPassesGrayImage(t *testing.T) {
	data := encodePNG(t, imaging.New(8, 8, color.NRGBA{200, 200, 200, 255}))
	rec := &fakeRecognizer{text: "HJK vs KuPS\n"}
	text, err := ExtractText(context.Background(), rec, data, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if text != "HJK vs KuPS\n" {
		t.Fatalf("line breaks not preserved: %q", text)
	}
	if _, ok := rec.got.(*image.Gray); !ok {
		t.Fatalf("recognizer got %T, want *image.Gray", rec.got)
	}
}

func TestExtractTextSurfacesEngineError(t *testing.T) {
	data := encodePNG(t, imaging.New(4, 4, color.NRGBA{0, 0, 0, 255}))
	rec := &fakeRecognizer{err: errors.New("engine unavailable")}
	_, err := ExtractText(context.Background(), rec, data, 0)
	if !errors.Is(err, ErrOcrFailure) {
		t.Fatalf("expected ErrOcrFailure got %v", err)
	}
}

func TestExtractTextKeepsWrappedEngineError(t *testing.T) {
	data := encodePNG(t, imaging.New(4, 4, color.NRGBA{0, 0, 0, 255}))
	wrapped := fmt.Errorf("%w: set image: bad", ErrOcrFailure)
	rec := &fakeRecognizer{err: wrapped}
	_, err := ExtractText(context.Background(), rec, data, 0)
	if err != wrapped {
		t.Fatalf("expected engine error unchanged, got %v", err)
	}
}

func TestNormalizeGrayscaleOfColorImage(t *testing.T) {
	// two flat colours with different luma stretch to the full range
	img := imaging.New(6, 6, color.NRGBA{200, 40, 40, 255})
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			img.Set(x, y, color.NRGBA{40, 200, 40, 255})
		}
	}
	out := Normalize(img, 0)
	if out.GrayAt(0, 0).Y != 0 || out.GrayAt(5, 5).Y != 255 {
		t.Fatalf("expected 0/255 got %d/%d", out.GrayAt(0, 0).Y, out.GrayAt(5, 5).Y)
	}
}
