package transmute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseJSONL parses JSON Lines text: one JSON value per line, blank lines
// skipped. The result is an array of the parsed values and RowCount is the
// number of lines.
func ParseJSONL(input string) (res *Result, err error) {
	defer guard(&err)

	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	var items []Value
	for i, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, jsonSyntaxError(err))
		}
		if tok, err := dec.Token(); err != io.EOF {
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, jsonSyntaxError(err))
			}
			return nil, fmt.Errorf("line %d: %w: unexpected %v after value", i+1, ErrMalformedSyntax, tok)
		}
		items = append(items, v)
	}
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}

	return &Result{Data: Array(items...), RowCount: len(items)}, nil
}

// EncodeJSONL renders the tree as JSON Lines: each element of a top-level
// array becomes one compact line. A non-array value becomes a single line.
func EncodeJSONL(v Value) (res *Result, err error) {
	defer guard(&err)

	items := []Value{v}
	if v.Kind() == KindArray {
		items = v.Items()
	}

	res = &Result{RowCount: len(items)}
	var buf bytes.Buffer
	opts := DefaultJSONEncodeOptions()
	for _, item := range items {
		writeJSONValue(&buf, item, opts, res)
		buf.WriteByte('\n')
	}
	res.Output = buf.String()
	return res, nil
}
