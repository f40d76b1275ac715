package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"predsheet/pkg/predictions"
)

const dateNumFmt = "yyyy-mm-dd"

// Result summarises a write.
type Result struct {
	Layout  Layout
	Written int
}

// Open reads a workbook and resolves its active sheet.
func Open(data []byte) (*excelize.File, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidTemplateFormat, err)
	}
	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		_ = f.Close()
		return nil, "", fmt.Errorf("%w: no sheets found", ErrInvalidTemplateFormat)
	}
	return f, name, nil
}

// Apply appends records to the active sheet of template and returns the new workbook.
// The input bytes are never modified.
func Apply(template []byte, records []predictions.MatchRecord, dateText string) ([]byte, Result, error) {
	f, sheetName, err := Open(template)
	if err != nil {
		return nil, Result{}, err
	}
	defer f.Close()

	res, err := writeRecords(f, sheetName, records, dateText)
	if err != nil {
		return nil, res, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, res, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), res, nil
}

// ApplyFile reads templatePath, writes records into it and stores the workbook at outPath.
// The output is written to a temporary file first so a failure leaves no partial file.
func ApplyFile(templatePath, outPath string, records []predictions.MatchRecord, dateText string) (Result, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return Result{}, fmt.Errorf("read template: %w", err)
	}
	out, res, err := Apply(data, records, dateText)
	if err != nil {
		return res, err
	}
	if err := writeFileAtomic(outPath, out); err != nil {
		return res, err
	}
	return res, nil
}

func writeRecords(f *excelize.File, sheetName string, records []predictions.MatchRecord, dateText string) (Result, error) {
	lay, err := DetectLayout(f, sheetName)
	if errors.Is(err, ErrNoWritableColumn) {
		log.Printf("sheet %q: %v, writing from row %d", sheetName, err, lay.StartRow)
	} else if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidTemplateFormat, err)
	}
	res := Result{Layout: lay}
	date := ParseDate(dateText)
	dates := dateStyles{f: f, cache: map[int]int{}}
	row := lay.StartRow
	for _, rec := range records {
		for _, label := range lay.Headers.labels {
			col := lay.Headers.cols[label]
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return res, err
			}
			if err := setCell(f, sheetName, cell, CellValue(label, rec, date), &dates); err != nil {
				return res, fmt.Errorf("set %s: %w", cell, err)
			}
		}
		row++
		res.Written++
	}
	return res, nil
}

func setCell(f *excelize.File, sheetName, cell string, v any, dates *dateStyles) error {
	switch val := v.(type) {
	case string:
		if val == "" {
			return f.SetCellValue(sheetName, cell, nil)
		}
		return f.SetCellStr(sheetName, cell, val)
	case time.Time:
		if err := f.SetCellValue(sheetName, cell, val); err != nil {
			return err
		}
		return dates.apply(sheetName, cell)
	default:
		return f.SetCellValue(sheetName, cell, val)
	}
}

// dateStyles derives date-formatted variants of existing cell styles so a date keeps the
// template's font, fill and borders.
type dateStyles struct {
	f     *excelize.File
	cache map[int]int
}

func (d *dateStyles) apply(sheetName, cell string) error {
	cur, err := d.f.GetCellStyle(sheetName, cell)
	if err != nil {
		return err
	}
	id, ok := d.cache[cur]
	if !ok {
		style := &excelize.Style{}
		if cur != 0 {
			if s, err := d.f.GetStyle(cur); err == nil && s != nil {
				style = s
			}
		}
		numFmt := dateNumFmt
		style.NumFmt = 0
		style.CustomNumFmt = &numFmt
		if id, err = d.f.NewStyle(style); err != nil {
			return err
		}
		d.cache[cur] = id
	}
	return d.f.SetCellStyle(sheetName, cell, cell, id)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".filled-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
