package transmute

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling. Match with [errors.Is];
// returned errors wrap these with position and context details.
//
// ErrEmptyInput and ErrInconsistentColumns keep sentence casing: their text
// is surfaced verbatim to end users by the tools built on this package.
var (
	ErrEmptyInput          = errors.New("Input is empty")
	ErrInconsistentColumns = errors.New("Inconsistent column count")
	ErrMalformedSyntax     = errors.New("malformed syntax")
	ErrUnsupportedValue    = errors.New("unsupported value")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrInternal            = errors.New("internal error")
)

// Format identifies a conversion format.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	XML      Format = "xml"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	JSONL    Format = "jsonl"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

var formats = []Format{JSON, YAML, XML, CSV, TSV, JSONL, Markdown, HTML}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Formats returns all supported format names.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat parses a format string.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ConvertOptions bundles the per-format options used by [Convert]. Nil
// fields mean that format's defaults.
type ConvertOptions struct {
	CSV        *CSVOptions
	CSVEncode  *CSVEncodeOptions
	JSONEncode *JSONEncodeOptions
	YAML       *YAMLOptions
	YAMLEncode *YAMLEncodeOptions
	XML        *XMLOptions
	XMLEncode  *XMLEncodeOptions
	Markdown   *MarkdownEncodeOptions
	HTML       *HTMLEncodeOptions
}

// Convert parses input as the from format and renders it as the to format in
// one call. The result carries the parsed tree in Data, the rendered text in
// Output, and the union of both phases' warnings and metadata. Markdown and
// HTML are encode-only targets.
//
// Convert is a convenience over the Parse*/Encode* pairs; callers needing
// the intermediate tree, or composing more than two steps, should call those
// directly.
func Convert(input string, from, to Format, opts *ConvertOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = &ConvertOptions{}
	}

	var parsed *Result
	switch from {
	case JSON:
		parsed, err = ParseJSON(input)
	case YAML:
		parsed, err = ParseYAML(input, opts.YAML)
	case XML:
		parsed, err = ParseXML(input, opts.XML)
	case CSV:
		parsed, err = ParseCSV(input, opts.CSV)
	case TSV:
		parsed, err = ParseTSV(input, opts.CSV)
	case JSONL:
		parsed, err = ParseJSONL(input)
	default:
		return nil, fmt.Errorf("%w: cannot parse %q", ErrUnsupportedFormat, from)
	}
	if err != nil {
		return nil, err
	}

	var encoded *Result
	switch to {
	case JSON:
		encoded, err = EncodeJSON(parsed.Data, opts.JSONEncode)
	case YAML:
		encoded, err = EncodeYAML(parsed.Data, opts.YAMLEncode)
	case XML:
		encoded, err = EncodeXML(parsed.Data, opts.XMLEncode)
	case CSV:
		encoded, err = EncodeCSV(parsed.Data, opts.CSVEncode)
	case TSV:
		encoded, err = EncodeTSV(parsed.Data, opts.CSVEncode)
	case JSONL:
		encoded, err = EncodeJSONL(parsed.Data)
	case Markdown:
		encoded, err = EncodeMarkdown(parsed.Data, opts.Markdown)
	case HTML:
		encoded, err = EncodeHTML(parsed.Data, opts.HTML)
	default:
		return nil, fmt.Errorf("%w: cannot encode %q", ErrUnsupportedFormat, to)
	}
	if err != nil {
		return nil, err
	}

	out := &Result{
		Data:        parsed.Data,
		Output:      encoded.Output,
		RowCount:    parsed.RowCount,
		ColumnCount: parsed.ColumnCount,
		Warnings:    append(append([]string(nil), parsed.Warnings...), encoded.Warnings...),
	}
	if out.RowCount == 0 {
		out.RowCount = encoded.RowCount
	}
	if out.ColumnCount == 0 {
		out.ColumnCount = encoded.ColumnCount
	}
	for k, v := range parsed.Metadata {
		out.meta(k, v)
	}
	for k, v := range encoded.Metadata {
		out.meta(k, v)
	}
	return out, nil
}

// guard converts a panic escaping a conversion into an ErrInternal error, so
// public functions report unexpected failures as values rather than crashing
// the caller. Deferred at every public entry point.
func guard(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}
