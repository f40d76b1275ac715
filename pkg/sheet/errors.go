package sheet

import "errors"

// ErrInvalidTemplateFormat is returned when the template bytes are not a readable workbook.
var ErrInvalidTemplateFormat = errors.New("invalid template format")

// ErrNoWritableColumn reports a template without any header label. Writers treat it as a
// warning and fall back to the row below the (assumed) header.
var ErrNoWritableColumn = errors.New("template has no header columns")
