package console

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

// ParseCSV reads entities from CSV text. The first record names the fields.
// Values are converted to the field's data type when the schema declares
// it; auto id fields are skipped.
func ParseCSV(r io.Reader, schema *catalog.Schema) ([]catalog.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv is empty", ErrInvalidParams)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %w", ErrInvalidParams, err)
	}

	types := make(map[string]catalog.Field)
	if schema != nil {
		for _, f := range schema.Fields {
			types[f.Name] = f
		}
	}

	var rows []catalog.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %w", ErrInvalidParams, err)
		}
		row := make(catalog.Row, len(header))
		for i, name := range header {
			f, known := types[name]
			if known && f.AutoID {
				continue
			}
			v, err := convert(rec[i], f.DataType)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %q: %w", ErrInvalidParams, line, name, err)
			}
			row[name] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: csv has no rows", ErrInvalidParams)
	}
	return rows, nil
}

// convert parses a CSV cell as dataType. Unknown types stay strings.
func convert(s, dataType string) (any, error) {
	switch dataType {
	case "Int8":
		return strconv.ParseInt(strings.TrimSpace(s), 10, 8)
	case "Int16":
		return strconv.ParseInt(strings.TrimSpace(s), 10, 16)
	case "Int32":
		return strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	case "Int64":
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case "Float", "Double":
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	case "Bool":
		return strconv.ParseBool(strings.TrimSpace(s))
	case "FloatVector", "JSON", "Array":
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return s, nil
}

// parseRows converts decoded JSON rows.
func parseRows(v any) ([]catalog.Row, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%w: rows must be a non-empty array", ErrInvalidParams)
	}
	rows := make([]catalog.Row, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not an object", ErrInvalidParams, i)
		}
		rows[i] = catalog.Row(m)
	}
	return rows, nil
}
