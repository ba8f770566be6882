package transmute

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TableShape selects the tree shape [ParseCSV] builds from tabular input.
type TableShape uint8

const (
	// ShapeRows produces one object per data row, keyed by header.
	ShapeRows TableShape = iota
	// ShapeColumnar produces {"headers": [...], "rows": [[...], ...]}.
	ShapeColumnar
	// ShapeGrouped nests rows under the first column's value. Duplicate
	// keys overwrite: last row wins.
	ShapeGrouped
)

// CSVOptions configures [ParseCSV]. Start from [DefaultCSVOptions] and
// adjust; a nil options value means the defaults.
type CSVOptions struct {
	// Delimiter is the field separator. Zero means ','.
	Delimiter rune
	// HasHeaders treats row 0 as header names.
	HasHeaders bool
	// CustomHeaders replaces header handling entirely: these names become
	// the headers and every input row, including row 0, is data.
	CustomHeaders []string
	// DetectTypes converts fields that look like numbers or booleans.
	// ISO date strings stay strings.
	DetectTypes bool
	// NullValues lists field texts that become null, matched exactly
	// after trimming.
	NullValues []string
	// TrimValues trims surrounding whitespace from every field.
	TrimValues bool
	// Shape picks the output tree shape.
	Shape TableShape
	// StrictMode fails the whole parse when any data row's field count
	// differs from the header width. Without it, short rows are padded
	// with empty strings and long rows truncated, each with a warning.
	StrictMode bool
}

// DefaultCSVOptions returns the documented defaults: comma delimiter,
// headers from row 0, no type detection, no null tokens, trimming on,
// row-object shape, lax width handling.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{Delimiter: ',', HasHeaders: true, TrimValues: true, Shape: ShapeRows}
}

// CSVEncodeOptions configures [EncodeCSV]. A nil value means the defaults.
type CSVEncodeOptions struct {
	// Delimiter is the field separator. Zero means ','.
	Delimiter rune
	// IncludeHeader emits the header row first.
	IncludeHeader bool
	// NullAs is the cell text for null values.
	NullAs string
	// Headers overrides the derived column set and order. For arrays of
	// objects it also selects which keys are emitted.
	Headers []string
}

// DefaultCSVEncodeOptions returns the documented defaults: comma delimiter,
// header row on, nulls as empty cells.
func DefaultCSVEncodeOptions() *CSVEncodeOptions {
	return &CSVEncodeOptions{Delimiter: ',', IncludeHeader: true}
}

// maxRowWarnings bounds the per-row width warnings in lax mode; rows beyond
// the cap are reported in one summary line.
const maxRowWarnings = 10

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?$`)
)

// ParseCSV parses delimiter-separated text into the canonical tree.
//
// A leading BOM is stripped and CRLF/CR line endings are normalized before
// tokenizing. Fields may be quoted; quoted fields can contain the delimiter,
// doubled-quote escapes and literal newlines. Blank lines are skipped and a
// trailing newline produces no empty row.
func ParseCSV(input string, opts *CSVOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultCSVOptions()
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	input = strings.TrimPrefix(input, "\uFEFF")
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	records, err := splitCSV(input, delim)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	// Header resolution. Custom headers make every record data; otherwise
	// row 0 is consumed when HasHeaders, or synthetic column1..N names are
	// generated from the first record's width.
	var headers []string
	data := records
	switch {
	case len(opts.CustomHeaders) > 0:
		headers = append([]string(nil), opts.CustomHeaders...)
	case opts.HasHeaders:
		headers = make([]string, len(records[0]))
		for i, h := range records[0] {
			if opts.TrimValues {
				h = strings.TrimSpace(h)
			}
			headers[i] = h
		}
		data = records[1:]
	default:
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = "column" + strconv.Itoa(i+1)
		}
	}
	width := len(headers)

	res = &Result{RowCount: len(data), ColumnCount: width}
	res.meta(MetaDelimiter, string(delim))
	res.meta(MetaHeaders, append([]string(nil), headers...))

	// Width reconciliation, then the per-field pipeline.
	adjusted := 0
	rows := make([][]Value, 0, len(data))
	keys := make([]string, 0, len(data))
	for i, rec := range data {
		rowNum := i + 1
		if len(rec) != width {
			if opts.StrictMode {
				return nil, fmt.Errorf("%w at row %d", ErrInconsistentColumns, rowNum)
			}
			adjusted++
			if adjusted <= maxRowWarnings {
				verb := "padded"
				if len(rec) > width {
					verb = "truncated"
				}
				res.warn(fmt.Sprintf("row %d: %d fields, %s to %d", rowNum, len(rec), verb, width))
			}
			for len(rec) < width {
				rec = append(rec, "")
			}
			rec = rec[:width]
		}

		cells := make([]Value, width)
		for j, raw := range rec {
			cells[j] = csvField(raw, opts)
		}
		rows = append(rows, cells)

		key := rec[0]
		if opts.TrimValues {
			key = strings.TrimSpace(key)
		}
		keys = append(keys, key)
	}
	if adjusted > maxRowWarnings {
		res.warn(fmt.Sprintf("%d more rows adjusted to %d columns", adjusted-maxRowWarnings, width))
	}

	res.Data = shapeTable(headers, rows, keys, opts.Shape)
	return res, nil
}

// csvField runs one field through the processing pipeline: trim, null-token
// match, optional type detection.
func csvField(raw string, opts *CSVOptions) Value {
	s := raw
	if opts.TrimValues {
		s = strings.TrimSpace(s)
	}
	for _, n := range opts.NullValues {
		if s == n {
			return Null()
		}
	}
	if opts.DetectTypes {
		return inferScalar(s)
	}
	return Str(s)
}

// inferScalar converts text to a bool or number on a strict literal match,
// else keeps it a string. Shared with the XML type conversion option.
func inferScalar(s string) Value {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if intPattern.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	return Str(s)
}

// shapeTable folds processed rows into the requested tree shape. keys holds
// the first-column text per row for the grouped shape.
func shapeTable(headers []string, rows [][]Value, keys []string, shape TableShape) Value {
	switch shape {
	case ShapeColumnar:
		hs := make([]Value, len(headers))
		for i, h := range headers {
			hs[i] = Str(h)
		}
		rs := make([]Value, len(rows))
		for i, cells := range rows {
			rs[i] = Array(cells...)
		}
		return Object(
			Member{Key: "headers", Value: Array(hs...)},
			Member{Key: "rows", Value: Array(rs...)},
		)

	case ShapeGrouped:
		index := make(map[string]int, len(rows))
		var members []Member
		for i, cells := range rows {
			var rest []Member
			for j := 1; j < len(headers); j++ {
				rest = append(rest, Member{Key: headers[j], Value: cells[j]})
			}
			val := Object(rest...)
			if at, ok := index[keys[i]]; ok {
				members[at].Value = val
			} else {
				index[keys[i]] = len(members)
				members = append(members, Member{Key: keys[i], Value: val})
			}
		}
		return Object(members...)

	default: // ShapeRows
		objs := make([]Value, len(rows))
		for i, cells := range rows {
			ms := make([]Member, len(headers))
			for j, h := range headers {
				ms[j] = Member{Key: h, Value: cells[j]}
			}
			objs[i] = Object(ms...)
		}
		return Array(objs...)
	}
}

// splitCSV tokenizes normalized input into records. It is a rune-level state
// machine: quoted fields may contain the delimiter, doubled-quote escapes
// and literal newlines; a record ends only at a bare newline.
func splitCSV(input string, delim rune) ([][]string, error) {
	const (
		stateUnquoted = iota
		stateQuoted
		stateQuoteSeen
	)

	var (
		rows      [][]string
		row       []string
		field     strings.Builder
		state     = stateUnquoted
		dirty     bool // current field has consumed at least one rune
		recQuoted bool // current record contained a quoted field
		rec       = 1  // 1-based record number for error positions
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
		dirty = false
	}
	endRecord := func() {
		endField()
		// A lone empty unquoted field is a blank line, not a record.
		if len(row) != 1 || row[0] != "" || recQuoted {
			rows = append(rows, row)
		}
		row = nil
		recQuoted = false
		rec++
	}

	for _, r := range input {
		switch state {
		case stateUnquoted:
			switch {
			case r == '"' && !dirty:
				state = stateQuoted
				dirty = true
				recQuoted = true
			case r == '"':
				return nil, fmt.Errorf("%w: bare quote in field at row %d", ErrMalformedSyntax, rec)
			case r == delim:
				endField()
			case r == '\n':
				endRecord()
			default:
				field.WriteRune(r)
				dirty = true
			}
		case stateQuoted:
			if r == '"' {
				state = stateQuoteSeen
			} else {
				field.WriteRune(r)
			}
		case stateQuoteSeen:
			switch {
			case r == '"':
				field.WriteRune('"')
				state = stateQuoted
			case r == delim:
				endField()
				state = stateUnquoted
			case r == '\n':
				state = stateUnquoted
				endRecord()
			default:
				return nil, fmt.Errorf("%w: unexpected %q after closing quote at row %d", ErrMalformedSyntax, r, rec)
			}
		}
	}

	switch state {
	case stateQuoted:
		return nil, fmt.Errorf("%w: unterminated quoted field at row %d", ErrMalformedSyntax, rec)
	case stateQuoteSeen:
		endRecord()
	default:
		if dirty || len(row) > 0 {
			endRecord()
		}
	}
	return rows, nil
}

// EncodeCSV renders a tabular tree as delimiter-separated text. It accepts
// an array of objects (headers are the union of keys in first-appearance
// order), an array of arrays, or the columnar {"headers", "rows"} shape.
// Quoting follows RFC 4180: fields containing the delimiter, a quote or a
// newline are wrapped in quotes with internal quotes doubled.
func EncodeCSV(v Value, opts *CSVEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultCSVEncodeOptions()
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	headers, rows, err := tableFromValue(v, opts.Headers)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = delim
	if opts.IncludeHeader && len(headers) > 0 {
		if err := w.Write(headers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	record := make([]string, 0, len(headers))
	for _, cells := range rows {
		record = record[:0]
		for _, c := range cells {
			record = append(record, cellText(c, opts.NullAs))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	res = &Result{Output: buf.String(), RowCount: len(rows), ColumnCount: len(headers)}
	if len(headers) == 0 && len(rows) > 0 {
		res.ColumnCount = len(rows[0])
	}
	return res, nil
}
