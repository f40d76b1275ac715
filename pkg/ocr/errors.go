package ocr

import "errors"

// ErrInvalidImageFormat is returned when the input bytes cannot be decoded as an image.
var ErrInvalidImageFormat = errors.New("invalid image format")

// ErrOcrFailure wraps any error reported by the recognition engine.
var ErrOcrFailure = errors.New("ocr failure")
