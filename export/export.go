/*
Package export renders CSV report rows as files.

PURPOSE:
  report.CSV returns rows of primitive cells (string, float64, nil). This
  package turns them into RFC-4180 CSV or an XLSX workbook. It never
  computes anything; every number is already rounded by the report.

FORMATS:
  json: rows as a JSON array (handled by the caller)
  csv:  comma separated, blank for nil, numbers without trailing zeros
  xlsx: one sheet, bold header row, frozen header and label column

SEE ALSO:
  - report/csv.go: Row layout
  - api/handlers.go: format=csv|xlsx download
*/
package export

import (
	"fmt"
	"strconv"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv and xlsx (case-insensitive); empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType is the MIME type of the rendered file.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Extension is the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// formatCell renders one cell as text.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		return strconv.FormatBool(c)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}
