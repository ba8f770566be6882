package transmute

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// AttributeMode governs how XML attributes fold into the tree.
type AttributeMode uint8

const (
	// AttrCompact prefixes attribute keys with '@'.
	AttrCompact AttributeMode = iota
	// AttrInline makes attributes plain sibling keys, indistinguishable
	// from child elements. Not reversible.
	AttrInline
	// AttrVerbose nests attributes under an "@attributes" object. The only
	// mode that round-trips.
	AttrVerbose
)

// XMLOptions configures [ParseXML]. Start from [DefaultXMLOptions] and
// adjust; a nil value means the defaults.
type XMLOptions struct {
	// AttributeMode picks the attribute folding.
	AttributeMode AttributeMode
	// RemoveNamespaces strips "prefix:" from element and attribute names
	// and drops xmlns declarations. Irreversible.
	RemoveNamespaces bool
	// ArrayMode enables smart arrays: two or more same-name siblings
	// collapse into an array, a single occurrence stays a plain value.
	// The resulting shape depends on sibling counts; schemas needing a
	// stable shape should turn this off, which makes every child tag an
	// array regardless of count.
	ArrayMode bool
	// ConvertTypes parses leaf text as a number or boolean on a strict
	// literal match. Attribute values always stay strings.
	ConvertTypes bool
}

// DefaultXMLOptions returns the documented defaults: compact attributes,
// namespaces kept, smart arrays on, no type conversion.
func DefaultXMLOptions() *XMLOptions {
	return &XMLOptions{ArrayMode: true}
}

// XMLEncodeOptions configures [EncodeXML]. A nil value means the defaults.
type XMLEncodeOptions struct {
	// Indent is the number of spaces per nesting level; 0 emits one line.
	Indent int
	// RootName names the root element when the tree is not a single-key
	// object. Empty means "root".
	RootName string
	// AttributeMode states which folding the tree uses, so "@attributes"
	// objects or "@"-prefixed keys map back to attributes.
	AttributeMode AttributeMode
	// Declaration emits the <?xml ...?> header.
	Declaration bool
}

// DefaultXMLEncodeOptions returns the documented defaults: two-space
// indent, "root" fallback name, verbose attribute folding, declaration on.
func DefaultXMLEncodeOptions() *XMLEncodeOptions {
	return &XMLEncodeOptions{Indent: 2, RootName: "root", AttributeMode: AttrVerbose, Declaration: true}
}

// ParseXML parses well-formed XML into the canonical tree. The root element
// wraps the result: <person>...</person> becomes {"person": ...}. CDATA
// sections are unwrapped to raw text; comments, processing instructions and
// directives are skipped; DTDs are not validated. Malformed input is a
// failure, never a partial tree.
//
// Metadata always reports inputBytes, outputBytes, elementCount and
// processingMs for caller diagnostics.
func ParseXML(input string, opts *XMLOptions) (res *Result, err error) {
	defer guard(&err)
	start := time.Now()

	if opts == nil {
		opts = DefaultXMLOptions()
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	p := &xmlParser{opts: opts}
	dec := xml.NewDecoder(strings.NewReader(input))

	var (
		root   *xmlElem
		stack  []*xmlElem
		scopes []map[string]string // namespace URI → prefix, innermost last
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSyntax, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("%w: second root element <%s> on line %d", ErrMalformedSyntax, t.Name.Local, line)
			}
			scopes = append(scopes, namespaceScope(scopes, t.Attr))
			el := &xmlElem{name: p.qualify(t.Name, scopes)}
			for _, a := range t.Attr {
				switch {
				case isNamespaceDecl(a.Name):
					if opts.RemoveNamespaces {
						continue
					}
					el.attrs = append(el.attrs, Member{Key: xmlnsName(a.Name), Value: Str(a.Value)})
				default:
					el.attrs = append(el.attrs, Member{Key: p.qualify(a.Name, scopes), Value: Str(a.Value)})
				}
			}
			p.elements++
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					line, _ := dec.InputPos()
					return nil, fmt.Errorf("%w: text outside the root element on line %d", ErrMalformedSyntax, line)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: missing root element", ErrMalformedSyntax)
	}

	res = &Result{Data: Object(Member{Key: root.name, Value: p.elementValue(root)})}

	var tree bytes.Buffer
	writeJSONValue(&tree, res.Data, &JSONEncodeOptions{}, &Result{})
	res.meta(MetaInputBytes, len(input))
	res.meta(MetaOutputBytes, tree.Len())
	res.meta(MetaElementCount, p.elements)
	res.meta(MetaProcessingMS, time.Since(start).Milliseconds())
	return res, nil
}

type xmlParser struct {
	opts     *XMLOptions
	elements int
}

type xmlElem struct {
	name     string
	attrs    []Member
	children []*xmlElem
	text     bytes.Buffer
}

// namespaceScope extends the innermost scope with xmlns declarations from
// one element's attributes. The parent map is shared until a declaration
// forces a copy.
func namespaceScope(scopes []map[string]string, attrs []xml.Attr) map[string]string {
	var scope map[string]string
	if len(scopes) > 0 {
		scope = scopes[len(scopes)-1]
	}
	cloned := false
	for _, a := range attrs {
		if !isNamespaceDecl(a.Name) {
			continue
		}
		if !cloned {
			next := make(map[string]string, len(scope)+1)
			for k, v := range scope {
				next[k] = v
			}
			scope, cloned = next, true
		}
		if a.Name.Local == "xmlns" {
			scope[a.Value] = "" // default namespace
		} else {
			scope[a.Value] = a.Name.Local
		}
	}
	return scope
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

func xmlnsName(n xml.Name) string {
	if n.Space == "xmlns" {
		return "xmlns:" + n.Local
	}
	return "xmlns"
}

// qualify reconstructs the prefixed source name. The decoder resolves
// prefixes to namespace URIs, so the in-scope xmlns declarations are used
// to map the URI back; an undeclared prefix passes through as-is.
func (p *xmlParser) qualify(n xml.Name, scopes []map[string]string) string {
	if n.Space == "" || p.opts.RemoveNamespaces {
		return n.Local
	}
	if len(scopes) > 0 {
		if prefix, ok := scopes[len(scopes)-1][n.Space]; ok {
			if prefix == "" {
				return n.Local
			}
			return prefix + ":" + n.Local
		}
	}
	return n.Space + ":" + n.Local
}

func (p *xmlParser) elementValue(el *xmlElem) Value {
	text := strings.TrimSpace(el.text.String())

	var members []Member
	switch p.opts.AttributeMode {
	case AttrVerbose:
		if len(el.attrs) > 0 {
			members = append(members, Member{Key: "@attributes", Value: Object(el.attrs...)})
		}
	case AttrInline:
		members = append(members, el.attrs...)
	default:
		for _, a := range el.attrs {
			members = append(members, Member{Key: "@" + a.Key, Value: a.Value})
		}
	}

	if len(members) == 0 && len(el.children) == 0 {
		if text == "" {
			return Null()
		}
		return p.leaf(text)
	}

	if text != "" {
		members = append(members, Member{Key: "#text", Value: p.leaf(text)})
	}

	// Group children by tag in first-appearance order.
	var order []string
	groups := make(map[string][]*xmlElem)
	for _, c := range el.children {
		if _, ok := groups[c.name]; !ok {
			order = append(order, c.name)
		}
		groups[c.name] = append(groups[c.name], c)
	}
	for _, name := range order {
		g := groups[name]
		if p.opts.ArrayMode && len(g) == 1 {
			members = append(members, Member{Key: name, Value: p.elementValue(g[0])})
			continue
		}
		items := make([]Value, len(g))
		for i, c := range g {
			items[i] = p.elementValue(c)
		}
		members = append(members, Member{Key: name, Value: Array(items...)})
	}
	return Object(members...)
}

func (p *xmlParser) leaf(text string) Value {
	if p.opts.ConvertTypes {
		return inferScalar(text)
	}
	return Str(text)
}

// EncodeXML renders the canonical tree as XML text. A single-key object
// whose key is a plain name supplies the root element; anything else is
// wrapped in RootName. Arrays repeat their element tag, so nested anonymous
// arrays flatten; a top-level array emits its elements as <item> children.
func EncodeXML(v Value, opts *XMLEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = DefaultXMLEncodeOptions()
	}
	rootName := opts.RootName
	if rootName == "" {
		rootName = "root"
	}

	name, content := rootName, v
	if v.Kind() == KindObject && v.Len() == 1 {
		if m := v.Members()[0]; !strings.HasPrefix(m.Key, "@") && m.Key != "#text" {
			name, content = m.Key, m.Value
		}
	}
	if content.Kind() == KindArray {
		content = Object(Member{Key: "item", Value: content})
	}

	e := &xmlEncoder{opts: opts}
	if opts.Declaration {
		e.sb.WriteString(xml.Header)
	}
	e.element(name, content, 0)

	res = &Result{Output: e.sb.String()}
	res.meta(MetaOutputBytes, len(res.Output))
	res.meta(MetaElementCount, e.elements)
	return res, nil
}

type xmlEncoder struct {
	opts     *XMLEncodeOptions
	sb       strings.Builder
	elements int
}

func (e *xmlEncoder) element(name string, v Value, depth int) {
	if v.Kind() == KindArray {
		for _, item := range v.Items() {
			e.element(name, item, depth)
		}
		return
	}

	e.elements++
	e.pad(depth)

	if v.Kind() != KindObject {
		text := cellText(v, "")
		if text == "" {
			e.sb.WriteString("<" + name + "/>")
			e.line()
			return
		}
		e.sb.WriteString("<" + name + ">")
		e.text(text)
		e.sb.WriteString("</" + name + ">")
		e.line()
		return
	}

	attrs, text, children := e.split(v)
	e.sb.WriteString("<" + name)
	for _, a := range attrs {
		e.sb.WriteString(" " + a.Key + `="`)
		e.text(cellText(a.Value, ""))
		e.sb.WriteString(`"`)
	}

	if len(children) == 0 && text == "" {
		e.sb.WriteString("/>")
		e.line()
		return
	}
	if len(children) == 0 {
		e.sb.WriteString(">")
		e.text(text)
		e.sb.WriteString("</" + name + ">")
		e.line()
		return
	}

	e.sb.WriteString(">")
	e.line()
	if text != "" {
		e.pad(depth + 1)
		e.text(text)
		e.line()
	}
	for _, c := range children {
		e.element(c.Key, c.Value, depth+1)
	}
	e.pad(depth)
	e.sb.WriteString("</" + name + ">")
	e.line()
}

// split separates one object's members into attributes, character data and
// child elements according to the declared attribute mode. Inline mode has
// no attribute marker, so everything but #text becomes a child element.
func (e *xmlEncoder) split(v Value) (attrs []Member, text string, children []Member) {
	for _, m := range v.Members() {
		switch {
		case m.Key == "#text":
			text = cellText(m.Value, "")
		case e.opts.AttributeMode == AttrVerbose && m.Key == "@attributes" && m.Value.Kind() == KindObject:
			attrs = append(attrs, m.Value.Members()...)
		case e.opts.AttributeMode == AttrCompact && strings.HasPrefix(m.Key, "@"):
			attrs = append(attrs, Member{Key: strings.TrimPrefix(m.Key, "@"), Value: m.Value})
		default:
			children = append(children, m)
		}
	}
	return attrs, text, children
}

func (e *xmlEncoder) text(s string) {
	_ = xml.EscapeText(&e.sb, []byte(s))
}

func (e *xmlEncoder) pad(depth int) {
	if e.opts.Indent > 0 {
		e.sb.WriteString(strings.Repeat(" ", depth*e.opts.Indent))
	}
}

func (e *xmlEncoder) line() {
	if e.opts.Indent > 0 {
		e.sb.WriteByte('\n')
	}
}
