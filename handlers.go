package main

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"predsheet/models"
	"predsheet/pkg/ocr"
	"predsheet/pkg/predictions"
	"predsheet/pkg/sheet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	allowedImageExt    = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true}
	allowedTemplateExt = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true}
)

const filledDownloadName = "filled_predictions.xlsx"

func setupRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/upload", uploadHandler)
	r.POST("/apply/:id", applyHandler)
	r.GET("/conversions/:id", getConversionHandler)
	r.DELETE("/conversions/:id", deleteConversionHandler)
}

// errorStatus maps pipeline errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errConversionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ocr.ErrInvalidImageFormat),
		errors.Is(err, ocr.ErrOcrFailure),
		errors.Is(err, sheet.ErrInvalidTemplateFormat):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func allowedFile(name string, allowed map[string]bool) bool {
	return allowed[strings.ToLower(filepath.Ext(name))]
}

// saveUpload stores fh under dir as prefix+ext and returns the full path.
func saveUpload(c *gin.Context, fh *multipart.FileHeader, dir, prefix string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	full := filepath.Join(dir, prefix+ext)
	if err := c.SaveUploadedFile(fh, full); err != nil {
		return "", err
	}
	return full, nil
}

func recordsOf(conv *models.Conversion) []predictions.MatchRecord {
	out := make([]predictions.MatchRecord, len(conv.Predictions))
	for i, p := range conv.Predictions {
		out[i] = p.Record()
	}
	return out
}

// uploadHandler stores a template and an image, runs OCR and returns the parsed preview.
func uploadHandler(c *gin.Context) {
	tplFile, err := c.FormFile("template")
	if err != nil || !allowedFile(tplFile.Filename, allowedTemplateExt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload an Excel template (.xlsx)"})
		return
	}
	imgFile, err := c.FormFile("image")
	if err != nil || !allowedFile(imgFile.Filename, allowedImageExt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload an image file (jpg/png/tiff)"})
		return
	}
	limit := cfg.MaxUploadBytes()
	if tplFile.Size > limit || imgFile.Size > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %dMB)", cfg.MaxUploadMB)})
		return
	}

	id := uuid.NewString()
	dir := filepath.Join(uploadBaseDir(), id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	// files belong to this request until the conversion row is committed
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(dir)
		}
	}()

	tplPath, err := saveUpload(c, tplFile, dir, "template")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	imgPath, err := saveUpload(c, imgFile, dir, "image")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	resp := gin.H{}
	tplData, err := os.ReadFile(tplPath)
	if err == nil {
		var rows [][]string
		if rows, err = sheet.Preview(tplData, sheet.DefaultPreviewRows); err == nil {
			resp["template_preview"] = rows
		}
	}
	if err != nil {
		resp["template_preview_error"] = err.Error()
	}

	imgData, err := os.ReadFile(imgPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}
	text, err := ocr.ExtractText(c.Request.Context(), recognizer, imgData, cfg.OCR.AutocontrastCutoff)
	if err != nil {
		log.Printf("upload %s: ocr failed: %v", id, err)
		c.JSON(errorStatus(err), gin.H{"error": "OCR failed: " + err.Error()})
		return
	}
	records := parser.Parse(text)

	conv := &models.Conversion{
		ID:           id,
		TemplateName: filepath.Base(tplFile.Filename),
		TemplatePath: tplPath,
		ImageName:    filepath.Base(imgFile.Filename),
		ImagePath:    imgPath,
		RecordCount:  len(records),
	}
	if err := store.Create(conv, models.PredictionsFromRecords(id, records)); err != nil {
		log.Printf("upload %s: store failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	committed = true
	log.Printf("upload %s: parsed %d records from %s", id, len(records), conv.ImageName)

	resp["request_id"] = id
	resp["count"] = len(records)
	resp["records"] = records
	c.JSON(http.StatusOK, resp)
}

// applyHandler writes the stored records into the session's template and sends the result.
func applyHandler(c *gin.Context) {
	id := c.Param("id")
	dateText := c.PostForm("date")
	conv, err := store.Find(id)
	if err != nil {
		if errors.Is(err, errConversionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session expired or files missing"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if _, err := os.Stat(conv.TemplatePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session expired or files missing"})
		return
	}

	// one output file per request so concurrent applies never share it
	out, err := os.CreateTemp(filepath.Dir(conv.TemplatePath), "filled_*.xlsx")
	if err != nil {
		log.Printf("apply %s: create output: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create output failed"})
		return
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)
	res, err := sheet.ApplyFile(conv.TemplatePath, outPath, recordsOf(conv), dateText)
	if err != nil {
		log.Printf("apply %s: %v", id, err)
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := store.MarkApplied(id, time.Now()); err != nil {
		log.Printf("apply %s: mark applied: %v", id, err)
	}
	log.Printf("apply %s: wrote %d rows from row %d", id, res.Written, res.Layout.StartRow)
	c.FileAttachment(outPath, filledDownloadName)
}

func getConversionHandler(c *gin.Context) {
	conv, err := store.Find(c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": conv.ID,
		"template":   conv.TemplateName,
		"image":      conv.ImageName,
		"created_at": conv.CreatedAt,
		"applied_at": conv.AppliedAt,
		"count":      conv.RecordCount,
		"records":    recordsOf(conv),
	})
}

// deleteConversionHandler releases a session's rows and files.
func deleteConversionHandler(c *gin.Context) {
	id := c.Param("id")
	conv, err := store.Find(id)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := store.Delete(id); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := os.RemoveAll(filepath.Dir(conv.TemplatePath)); err != nil {
		log.Printf("delete %s: remove files: %v", id, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversion deleted"})
}
