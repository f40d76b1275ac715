package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Language is the Tesseract language hint. Predictions are always read as English.
const Language = "eng"

// Recognizer turns a normalized image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// TesseractRecognizer runs the Tesseract engine through gosseract. A fresh client is
// created per call because gosseract clients are not safe for concurrent use.
type TesseractRecognizer struct{}

func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{}
}

// Recognize encodes img as PNG, hands it to Tesseract and returns the text with the
// engine's line breaks preserved.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("%w: encode image: %v", ErrOcrFailure, err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(Language); err != nil {
		return "", fmt.Errorf("%w: set language: %v", ErrOcrFailure, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: set image: %v", ErrOcrFailure, err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOcrFailure, err)
	}
	return text, nil
}

// ExtractText decodes raw image bytes, normalizes them and runs rec on the result.
// The whole step either returns text or fails; no partial text is returned. Engine
// errors always match ErrOcrFailure.
func ExtractText(ctx context.Context, rec Recognizer, data []byte, cutoff float64) (string, error) {
	gray, err := NormalizeBytes(data, cutoff)
	if err != nil {
		return "", err
	}
	text, err := rec.Recognize(ctx, gray)
	if err != nil {
		if !errors.Is(err, ErrOcrFailure) {
			err = fmt.Errorf("%w: %v", ErrOcrFailure, err)
		}
		return "", err
	}
	log.Printf("OCR RAW bytes=%d snippet=%q", len(data), snippet(text, 180))
	return text, nil
}
