package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes rows as RFC-4180 CSV. A zero delimiter means comma.
func WriteCSV(w io.Writer, rows [][]any, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	record := make([]string, 0, 16)
	for i, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, formatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
