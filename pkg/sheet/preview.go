package sheet

// DefaultPreviewRows is how many template rows the upload preview shows.
const DefaultPreviewRows = 20

// Preview returns up to n rows of the workbook's active sheet, each padded to the same
// width so callers can render a table.
func Preview(data []byte, n int) ([][]string, error) {
	f, sheetName, err := Open(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = make([]string, width)
		copy(out[i], r)
	}
	return out, nil
}
