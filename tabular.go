package transmute

import (
	"bytes"
	"fmt"
	"strconv"
)

// tableFromValue extracts a header list and row cells from the tabular tree
// shapes shared by the CSV, TSV, Markdown and HTML encoders: an array of
// objects, an array of arrays, or the columnar {"headers", "rows"} object.
// override replaces the derived header set; for arrays of objects it also
// selects which keys become columns. Arrays of arrays may have no headers
// at all.
func tableFromValue(v Value, override []string) ([]string, [][]Value, error) {
	switch v.Kind() {
	case KindObject:
		hv, okH := v.Get("headers")
		rv, okR := v.Get("rows")
		if !okH || !okR || hv.Kind() != KindArray || rv.Kind() != KindArray {
			return nil, nil, fmt.Errorf("%w: object is not the columnar {headers, rows} shape", ErrUnsupportedValue)
		}
		headers := make([]string, 0, hv.Len())
		for _, h := range hv.Items() {
			headers = append(headers, cellText(h, ""))
		}
		if len(override) > 0 {
			headers = append([]string(nil), override...)
		}
		rows := make([][]Value, 0, rv.Len())
		for i, row := range rv.Items() {
			if row.Kind() != KindArray {
				return nil, nil, fmt.Errorf("%w: columnar row %d is %s, expected array", ErrUnsupportedValue, i, row.Kind())
			}
			rows = append(rows, row.Items())
		}
		return headers, rows, nil

	case KindArray:
		items := v.Items()
		if len(items) == 0 {
			return append([]string(nil), override...), nil, nil
		}

		switch items[0].Kind() {
		case KindObject:
			headers := append([]string(nil), override...)
			if len(headers) == 0 {
				// Union of keys in first-appearance order across all rows.
				seen := make(map[string]bool)
				for _, it := range items {
					for _, m := range it.Members() {
						if !seen[m.Key] {
							seen[m.Key] = true
							headers = append(headers, m.Key)
						}
					}
				}
			}
			rows := make([][]Value, 0, len(items))
			for i, it := range items {
				if it.Kind() != KindObject {
					return nil, nil, fmt.Errorf("%w: row %d is %s, expected object", ErrUnsupportedValue, i, it.Kind())
				}
				cells := make([]Value, len(headers))
				for j, h := range headers {
					if mv, ok := it.Get(h); ok {
						cells[j] = mv
					} else {
						cells[j] = Null()
					}
				}
				rows = append(rows, cells)
			}
			return headers, rows, nil

		case KindArray:
			rows := make([][]Value, 0, len(items))
			for i, it := range items {
				if it.Kind() != KindArray {
					return nil, nil, fmt.Errorf("%w: row %d is %s, expected array", ErrUnsupportedValue, i, it.Kind())
				}
				rows = append(rows, it.Items())
			}
			return append([]string(nil), override...), rows, nil

		default:
			return nil, nil, fmt.Errorf("%w: array of %s values is not tabular", ErrUnsupportedValue, items[0].Kind())
		}

	default:
		return nil, nil, fmt.Errorf("%w: %s is not tabular", ErrUnsupportedValue, v.Kind())
	}
}

// cellText flattens one cell to text. Nested arrays and objects have no
// flat cell form and render as compact JSON.
func cellText(v Value, nullAs string) string {
	switch v.Kind() {
	case KindNull:
		return nullAs
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindNumber:
		return v.Number()
	case KindString:
		return v.Str()
	default:
		var buf bytes.Buffer
		writeJSONValue(&buf, v, &JSONEncodeOptions{}, &Result{})
		return buf.String()
	}
}
