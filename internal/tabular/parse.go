// Package tabular reads batch inventory uploads and writes CSV exports.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
)

var deltaColumns = []string{"store_id", "product_id", "quantity"}

// ParseDeltaRows reads a CSV with a store_id,product_id,quantity header in
// any column order. Rows that cannot be read come back with ParseError set
// so the caller can report them alongside applied rows.
func ParseDeltaRows(r io.Reader) ([]domain.DeltaRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Validation("csv is empty, expected header %s", strings.Join(deltaColumns, ","))
	}
	if err != nil {
		return nil, domain.Validation("could not read csv header: %v", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}
	for _, col := range deltaColumns {
		if _, ok := index[col]; !ok {
			return nil, domain.Validation("csv header is missing column %q", col)
		}
	}

	rows := make([]domain.DeltaRow, 0)
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		row := domain.DeltaRow{Row: n}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("failed to read csv: %w", err)
			}
			row.ParseError = pe.Err.Error()
			rows = append(rows, row)
			continue
		}

		if isBlank(record) {
			n--
			continue
		}

		row.StoreID = field(record, index["store_id"])
		row.ProductID = field(record, index["product_id"])
		rawQty := field(record, index["quantity"])

		switch {
		case len(record) < len(header):
			row.ParseError = fmt.Sprintf("expected %d columns, got %d", len(header), len(record))
		case rawQty == "":
			row.ParseError = "quantity is required"
		default:
			qty, err := strconv.ParseInt(rawQty, 10, 64)
			if err != nil {
				row.ParseError = fmt.Sprintf("quantity %q is not an integer", rawQty)
			}
			row.Quantity = qty
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
