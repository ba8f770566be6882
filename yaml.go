package transmute

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DateFormat controls how YAML timestamp scalars enter the tree, which has
// no date type.
type DateFormat uint8

const (
	// DateISO renders timestamps as RFC 3339 strings.
	DateISO DateFormat = iota
	// DateUnix renders timestamps as integer seconds since the epoch.
	DateUnix
	// DateString keeps the source text unchanged.
	DateString
)

// YAMLOptions configures [ParseYAML]. A nil value means the defaults:
// special floats become null, timestamps become RFC 3339 strings.
type YAMLOptions struct {
	// NaNPolicy and InfPolicy normalize .nan and ±.inf scalars, which JSON
	// cannot represent. FloatKeep holds them in the tree; a later JSON
	// encode degrades them to null and reports the loss.
	NaNPolicy SpecialFloatPolicy
	InfPolicy SpecialFloatPolicy
	// DateFormat picks the representation for timestamp scalars.
	DateFormat DateFormat
}

// DefaultYAMLOptions returns the documented defaults.
func DefaultYAMLOptions() *YAMLOptions {
	return &YAMLOptions{}
}

// QuoteStyle selects string scalar quoting for [EncodeYAML].
type QuoteStyle uint8

const (
	// QuoteAuto quotes only where plain style would change meaning.
	QuoteAuto QuoteStyle = iota
	// QuoteSingle single-quotes string values.
	QuoteSingle
	// QuoteDouble double-quotes string values.
	QuoteDouble
)

// YAMLEncodeOptions configures [EncodeYAML]. A nil value means the defaults.
type YAMLEncodeOptions struct {
	// Indent is the number of spaces per nesting level. Zero means 2.
	Indent int
	// Quote sets the string scalar style. Keys are always auto-styled.
	Quote QuoteStyle
	// MultiDocument emits a top-level array as a stream of documents
	// joined by "---" instead of one YAML sequence.
	MultiDocument bool
	// SortKeys sorts object members by key at every level.
	SortKeys bool
	// PreserveComments is accepted for interface parity. The tree carries
	// no comments, so requesting it yields a warning, never a failure.
	PreserveComments bool
}

// DefaultYAMLEncodeOptions returns the documented defaults: two-space
// indent, automatic quoting, single document, source key order.
func DefaultYAMLEncodeOptions() *YAMLEncodeOptions {
	return &YAMLEncodeOptions{Indent: 2}
}

// ParseYAML parses single- or multi-document YAML into the canonical tree.
// One document becomes its value; several become an array, and the
// documentCount metadata key always reports how many were read. Aliases are
// expanded since the tree has no reference mechanism; when that happens the
// result carries a warning and the anchorCount metadata key.
func ParseYAML(input string, opts *YAMLOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultYAMLOptions()
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	res = &Result{}
	p := &yamlParser{opts: opts, res: res, inFlight: make(map[*yaml.Node]bool)}

	dec := yaml.NewDecoder(strings.NewReader(input))
	var docs []Value
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSyntax, err)
		}
		v, err := p.value(&node)
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}

	res.meta(MetaDocumentCount, len(docs))
	if p.aliases > 0 {
		res.meta(MetaAnchorCount, p.aliases)
		res.warn(fmt.Sprintf("expanded %d alias references; anchors are not preserved", p.aliases))
	}

	if len(docs) == 1 {
		res.Data = docs[0]
	} else {
		res.Data = Array(docs...)
	}
	return res, nil
}

type yamlParser struct {
	opts     *YAMLOptions
	res      *Result
	aliases  int
	inFlight map[*yaml.Node]bool // anchors being expanded, for cycle detection
}

func (p *yamlParser) value(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case 0:
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return p.value(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null(), nil
		}
		if p.inFlight[n.Alias] {
			return Value{}, fmt.Errorf("%w: anchor %q contains itself", ErrMalformedSyntax, n.Value)
		}
		p.aliases++
		p.inFlight[n.Alias] = true
		v, err := p.value(n.Alias)
		delete(p.inFlight, n.Alias)
		return v, err
	case yaml.ScalarNode:
		return p.scalar(n), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := p.value(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		members := make([]Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := p.key(n.Content[i])
			if err != nil {
				return Value{}, err
			}
			val, err := p.value(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			members = append(members, Member{Key: key, Value: val})
		}
		return Object(members...), nil
	}
	return Value{}, fmt.Errorf("%w: unhandled YAML node kind %d at line %d", ErrMalformedSyntax, n.Kind, n.Line)
}

// key renders a mapping key as text. Scalar keys keep their source text;
// complex keys, which JSON cannot express, render as compact JSON.
func (p *yamlParser) key(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode && n.Alias == nil {
		return n.Value, nil
	}
	v, err := p.value(n)
	if err != nil {
		return "", err
	}
	if v.Kind() == KindString {
		return v.Str(), nil
	}
	return cellText(v, "null"), nil
}

func (p *yamlParser) scalar(n *yaml.Node) Value {
	switch n.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		switch strings.ToLower(n.Value) {
		case "true", "yes", "on":
			return Bool(true)
		case "false", "no", "off":
			return Bool(false)
		}
		return Str(n.Value)
	case "!!int":
		return yamlInt(n.Value)
	case "!!float":
		return p.yamlFloat(n.Value)
	case "!!timestamp":
		return p.timestamp(n.Value)
	case "!!binary":
		return p.binary(n.Value)
	default:
		return Str(n.Value)
	}
}

func yamlInt(raw string) Value {
	s := strings.ReplaceAll(raw, "_", "")
	// Plain decimal first: base-0 parsing would read a leading zero as octal.
	if intPattern.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
		// Past int64 range. JSON numbers carry arbitrary precision, so keep
		// the digits, minus sign and zero padding JSON syntax rejects.
		lit := strings.TrimPrefix(s, "+")
		sign := ""
		if strings.HasPrefix(lit, "-") {
			sign, lit = "-", lit[1:]
		}
		return numberLit(sign + strings.TrimLeft(lit, "0"))
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return Int(i)
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return numberLit(strconv.FormatUint(u, 10))
	}
	return Str(raw)
}

func (p *yamlParser) yamlFloat(raw string) Value {
	s := strings.ReplaceAll(raw, "_", "")
	switch strings.ToLower(s) {
	case ".nan", "nan":
		return p.specialFloat(math.NaN())
	case ".inf", "+.inf", "inf", "+inf":
		return p.specialFloat(math.Inf(1))
	case "-.inf", "-inf":
		return p.specialFloat(math.Inf(-1))
	}
	// Keep the source spelling when JSON syntax can carry it verbatim;
	// YAML-only shapes like ".5" or "5." are reformatted.
	if jsonNumberPattern.MatchString(s) {
		return numberLit(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return Str(raw)
}

func (p *yamlParser) specialFloat(f float64) Value {
	policy, name, lit := p.opts.NaNPolicy, "NaN", "NaN"
	switch {
	case math.IsInf(f, 1):
		policy, name, lit = p.opts.InfPolicy, "Infinity", "+Inf"
	case math.IsInf(f, -1):
		policy, name, lit = p.opts.InfPolicy, "-Infinity", "-Inf"
	}
	switch policy {
	case FloatString:
		return Str(name)
	case FloatKeep:
		return numberLit(lit)
	default:
		return Null()
	}
}

// yamlTimeFormats mirrors the timestamp shapes the yaml.v3 resolver accepts.
var yamlTimeFormats = []string{
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
}

func (p *yamlParser) timestamp(raw string) Value {
	var t time.Time
	ok := false
	for _, f := range yamlTimeFormats {
		if parsed, err := time.Parse(f, raw); err == nil {
			t, ok = parsed, true
			break
		}
	}
	if !ok {
		return Str(raw)
	}
	switch p.opts.DateFormat {
	case DateUnix:
		return Int(t.Unix())
	case DateString:
		return Str(raw)
	default:
		return Str(t.UTC().Format(time.RFC3339Nano))
	}
}

func (p *yamlParser) binary(raw string) Value {
	b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(raw), ""))
	if err != nil {
		return Str(raw)
	}
	if utf8.Valid(b) {
		return Str(string(b))
	}
	p.res.warn("binary scalar is not valid UTF-8; kept as base64 text")
	return Str(strings.Join(strings.Fields(raw), ""))
}

// EncodeYAML renders the canonical tree as YAML text. NaN and ±Inf number
// literals in the tree emit natively as .nan and ±.inf.
func EncodeYAML(v Value, opts *YAMLEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultYAMLEncodeOptions()
	}
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	if opts.SortKeys {
		v = v.Sorted()
	}

	res = &Result{}
	if opts.PreserveComments {
		res.warn("comments do not survive conversion; none were preserved")
	}

	docs := []Value{v}
	if opts.MultiDocument && v.Kind() == KindArray {
		docs = v.Items()
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	for _, d := range docs {
		if err := enc.Encode(yamlNode(d, opts.Quote)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	res.meta(MetaDocumentCount, len(docs))
	res.Output = buf.String()
	return res, nil
}

func yamlNode(v Value, quote QuoteStyle) *yaml.Node {
	switch v.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool())}
	case KindNumber:
		lit := v.Number()
		switch lit {
		case "NaN":
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".nan"}
		case "+Inf":
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
		case "-Inf":
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
		}
		tag := "!!int"
		if strings.ContainsAny(lit, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}
	case KindString:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
		switch quote {
		case QuoteSingle:
			n.Style = yaml.SingleQuotedStyle
		case QuoteDouble:
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, yamlNode(item, quote))
		}
		return n
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value, quote),
			)
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
