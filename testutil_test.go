package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"predsheet/models"
	"predsheet/pkg/config"
	"predsheet/pkg/predictions"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const sampleOCR = "Veikkausliiga\n18:30\nHJK vs KuPS\nBest Bet: Over 2.5\n"

// memStore keeps conversions in memory for handler tests.
type memStore struct {
	mu    sync.Mutex
	convs map[string]models.Conversion
}

func newMemStore() *memStore { return &memStore{convs: map[string]models.Conversion{}} }

func (m *memStore) Create(conv *models.Conversion, preds []models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *conv
	cp.CreatedAt = time.Now()
	cp.Predictions = append([]models.Prediction(nil), preds...)
	m.convs[conv.ID] = cp
	return nil
}

func (m *memStore) Find(id string) (*models.Conversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[id]
	if !ok {
		return nil, errConversionNotFound
	}
	return &conv, nil
}

func (m *memStore) MarkApplied(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[id]
	if !ok {
		return errConversionNotFound
	}
	conv.AppliedAt = &at
	m.convs[id] = conv
	return nil
}

func (m *memStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[id]; !ok {
		return errConversionNotFound
	}
	delete(m.convs, id)
	return nil
}

type staticRecognizer struct {
	text string
	err  error
}

func (s staticRecognizer) Recognize(context.Context, image.Image) (string, error) {
	return s.text, s.err
}

// setupMemServer wires the handlers to in-memory collaborators.
func setupMemServer(t *testing.T, ocrText string) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg = config.Default()
	cfg.UploadBase = t.TempDir()
	ms := newMemStore()
	store = ms
	recognizer = staticRecognizer{text: ocrText}
	parser = predictions.NewParser(nil)
	r := gin.New()
	setupRoutes(r)
	return r, ms
}

// helper to perform requests
func performRequest(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func templateBytes(t *testing.T, header ...any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(16, 16, color.NRGBA{240, 240, 240, 255}), imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// uploadBody builds the multipart form for POST /upload.
func uploadBody(t *testing.T, tplName string, tpl []byte, imgName string, img []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if tpl != nil {
		w, _ := mw.CreateFormFile("template", tplName)
		_, _ = w.Write(tpl)
	}
	if img != nil {
		w, _ := mw.CreateFormFile("image", imgName)
		_, _ = w.Write(img)
	}
	_ = mw.Close()
	return buf, mw.FormDataContentType()
}
