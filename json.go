package transmute

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SpecialFloatPolicy controls what happens to NaN and ±Inf at an encode
// boundary. YAML represents them natively, JSON does not.
type SpecialFloatPolicy uint8

const (
	// FloatNull replaces the value with null.
	FloatNull SpecialFloatPolicy = iota
	// FloatString replaces the value with the strings "NaN", "Infinity" or
	// "-Infinity".
	FloatString
	// FloatKeep keeps the value where the format allows it. JSON cannot, so
	// there it degrades to null and the result reports the loss through a
	// warning and the dataLoss metadata key.
	FloatKeep
)

// JSONEncodeOptions configures [EncodeJSON].
type JSONEncodeOptions struct {
	// Indent is the number of spaces per nesting level; 0 emits compact
	// output.
	Indent int
	// SortKeys sorts object members by key at every level. Off by default:
	// member order from the source is preserved.
	SortKeys bool
	// EscapeHTML escapes <, > and & as \u sequences the way encoding/json
	// does by default. Off here: the output is meant to be read.
	EscapeHTML bool
	// NaNPolicy and InfPolicy pick the fate of special floats, which JSON
	// has no literal for.
	NaNPolicy SpecialFloatPolicy
	InfPolicy SpecialFloatPolicy
}

// DefaultJSONEncodeOptions returns the documented defaults: compact output,
// source key order, no HTML escaping, special floats replaced with null.
func DefaultJSONEncodeOptions() *JSONEncodeOptions {
	return &JSONEncodeOptions{}
}

// jsonNumberPattern matches literals JSON syntax accepts. Parsers that keep
// source spellings check it before storing one; shapes other formats allow,
// like ".5" or "5.", must be reformatted instead.
var jsonNumberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ParseJSON parses JSON text into the canonical tree. Object member order is
// preserved and number literals are kept verbatim, so a parse/encode round
// trip does not disturb 64-bit integers or exponent spellings.
func ParseJSON(input string) (res *Result, err error) {
	defer guard(&err)

	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, jsonSyntaxError(err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, jsonSyntaxError(err)
		}
		return nil, fmt.Errorf("%w: unexpected %v after top-level JSON value", ErrMalformedSyntax, tok)
	}

	return &Result{Data: v}, nil
}

// EncodeJSON renders the canonical tree as JSON text.
func EncodeJSON(v Value, opts *JSONEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultJSONEncodeOptions()
	}
	if opts.SortKeys {
		v = v.Sorted()
	}

	res = &Result{}
	var buf bytes.Buffer
	writeJSONValue(&buf, v, opts, res)

	out := buf.Bytes()
	if opts.Indent > 0 {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", strings.Repeat(" ", opts.Indent)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		out = indented.Bytes()
	}
	res.Output = string(out)
	return res, nil
}

func jsonSyntaxError(err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return fmt.Errorf("%w: %v at offset %d", ErrMalformedSyntax, err, syn.Offset)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedSyntax)
	}
	return fmt.Errorf("%w: %v", ErrMalformedSyntax, err)
}

// decodeJSONValue reads one complete value from the decoder. The token API
// is used instead of Unmarshal because maps would lose member order.
func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return jsonValueFromToken(dec, tok)
}

func jsonValueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberLit(string(t)), nil
	case string:
		return Str(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("array[%d]: %w", len(items), err)
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("object[%q]: %w", key, err)
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func writeJSONValue(buf *bytes.Buffer, v Value, opts *JSONEncodeOptions, res *Result) {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case KindNumber:
		writeJSONNumber(buf, v, opts, res)
	case KindString:
		writeJSONString(buf, v.Str(), opts.EscapeHTML)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONValue(buf, item, opts, res)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, m.Key, opts.EscapeHTML)
			buf.WriteByte(':')
			writeJSONValue(buf, m.Value, opts, res)
		}
		buf.WriteByte('}')
	}
}

func writeJSONNumber(buf *bytes.Buffer, v Value, opts *JSONEncodeOptions, res *Result) {
	lit := v.Number()
	f, perr := strconv.ParseFloat(lit, 64)
	if perr != nil || (!math.IsNaN(f) && !math.IsInf(f, 0)) {
		buf.WriteString(lit)
		return
	}

	policy, name := opts.NaNPolicy, "NaN"
	switch {
	case math.IsInf(f, 1):
		policy, name = opts.InfPolicy, "Infinity"
	case math.IsInf(f, -1):
		policy, name = opts.InfPolicy, "-Infinity"
	}

	switch policy {
	case FloatString:
		writeJSONString(buf, name, opts.EscapeHTML)
	case FloatKeep:
		// JSON has no literal for these, so the keep request degrades to
		// null and the loss is reported instead of silent.
		buf.WriteString("null")
		res.meta(MetaDataLoss, true)
		res.warn(fmt.Sprintf("%s has no JSON representation; emitted null", name))
	default:
		buf.WriteString("null")
	}
}

const hexDigits = "0123456789abcdef"

func writeJSONString(buf *bytes.Buffer, s string, escapeHTML bool) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		b := s[i]
		if b < utf8.RuneSelf {
			switch {
			case b == '"' || b == '\\':
				buf.WriteByte('\\')
				buf.WriteByte(b)
			case b == '\n':
				buf.WriteString(`\n`)
			case b == '\r':
				buf.WriteString(`\r`)
			case b == '\t':
				buf.WriteString(`\t`)
			case b < 0x20:
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[b>>4])
				buf.WriteByte(hexDigits[b&0xF])
			case escapeHTML && (b == '<' || b == '>' || b == '&'):
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[b>>4])
				buf.WriteByte(hexDigits[b&0xF])
			default:
				buf.WriteByte(b)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid UTF-8 byte; emit the replacement character the way
			// encoding/json does.
			buf.WriteString("�")
			i++
			continue
		}
		// U+2028 and U+2029 are legal in JSON but break JavaScript string
		// literals; escape them like encoding/json.
		if r == '\u2028' || r == '\u2029' {
			buf.WriteString(`\u202`)
			buf.WriteByte(hexDigits[r&0xF])
			i += size
			continue
		}
		buf.WriteString(s[i : i+size])
		i += size
	}
	buf.WriteByte('"')
}
