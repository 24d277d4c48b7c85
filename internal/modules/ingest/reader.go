package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/aristath/fundamentals/internal/modules/statements"
)

// ReadTable parses a latin-1, semicolon-separated regulator table.
// Every field is kept as text; numeric and date parsing happens in the
// cleaner.
func ReadTable(r io.Reader) (statements.RawTable, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return statements.RawTable{}, nil
	}
	if err != nil {
		return statements.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return statements.RawTable{}, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return statements.NewRawTable(header, rows), nil
}
