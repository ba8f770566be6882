package transmute

import (
	"bytes"
	"encoding/xml"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCSV(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  [][]string
	}{
		"quoted delimiter":      {input: "\"a,b\",c", want: [][]string{{"a,b", "c"}}},
		"doubled quotes":        {input: "\"he said \"\"hi\"\"\",x", want: [][]string{{`he said "hi"`, "x"}}},
		"newline inside quotes": {input: "\"l1\nl2\",x", want: [][]string{{"l1\nl2", "x"}}},
		"blank line skipped":    {input: "a\n\nb", want: [][]string{{"a"}, {"b"}}},
		"quoted empty kept":     {input: "\"\"", want: [][]string{{""}}},
		"trailing newline":      {input: "a,b\n", want: [][]string{{"a", "b"}}},
		"no trailing newline":   {input: "a,b", want: [][]string{{"a", "b"}}},
		"quote ends input":      {input: "\"a\"", want: [][]string{{"a"}}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := splitCSV(tt.input, ',')
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCSVErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  string
	}{
		"bare quote":          {input: "ab\"c", want: "bare quote in field at row 1"},
		"text after quote":    {input: "\"a\"x", want: "unexpected 'x' after closing quote at row 1"},
		"unterminated":        {input: "\"a", want: "unterminated quoted field at row 1"},
		"error on second row": {input: "h\n\"a", want: "unterminated quoted field at row 2"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := splitCSV(tt.input, ',')
			require.ErrorIs(t, err, ErrMalformedSyntax)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGuardRecovers(t *testing.T) {
	t.Parallel()
	fn := func() (err error) {
		defer guard(&err)
		panic("boom")
	}
	err := fn()
	require.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "boom")
}

func TestGuardNoPanic(t *testing.T) {
	t.Parallel()
	fn := func() (err error) {
		defer guard(&err)
		return nil
	}
	assert.NoError(t, fn())
}

func TestInferScalar(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  Value
	}{
		"bool true":         {input: "true", want: Bool(true)},
		"bool false":        {input: "false", want: Bool(false)},
		"capitalized stays": {input: "True", want: Str("True")},
		"plus sign dropped": {input: "+7", want: Int(7)},
		"leading zero":      {input: "095", want: Int(95)},
		"exponent to float": {input: "1e5", want: Float(100000)},
		"negative float":    {input: "-3.5", want: Float(-3.5)},
		"nan is text":       {input: "NaN", want: Str("NaN")},
		"empty is text":     {input: "", want: Str("")},
		"dotted version":    {input: "1.2.3", want: Str("1.2.3")},
		"hex is text":       {input: "0x10", want: Str("0x10")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, inferScalar(tt.input))
		})
	}
}

func TestCSVFieldNullTokens(t *testing.T) {
	t.Parallel()
	opts := &CSVOptions{TrimValues: true, NullValues: []string{"null", "N/A"}}
	assert.Equal(t, Null(), csvField(" null ", opts))
	assert.Equal(t, Null(), csvField("N/A", opts))
	assert.Equal(t, Str("7"), csvField("7", opts), "no detection unless requested")
}

func TestYAMLIntForms(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		want  Value
	}{
		"hex":                  {input: "0x1F", want: Int(31)},
		"octal":                {input: "0o17", want: Int(15)},
		"underscores":          {input: "1_000", want: Int(1000)},
		"zero padded decimal":  {input: "0777", want: Int(777)},
		"negative":             {input: "-42", want: Int(-42)},
		"past int64":           {input: "99999999999999999999", want: numberLit("99999999999999999999")},
		"past int64 with sign": {input: "+99999999999999999999", want: numberLit("99999999999999999999")},
		"past int64 padded":    {input: "0099999999999999999999", want: numberLit("99999999999999999999")},
		"uint64 hex":           {input: "0xFFFFFFFFFFFFFFFF", want: numberLit("18446744073709551615")},
		"garbage":              {input: "abc", want: Str("abc")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, yamlInt(tt.input))
		})
	}
}

// Float spellings survive only when JSON syntax accepts them verbatim.
func TestYAMLFloatSpelling(t *testing.T) {
	t.Parallel()
	p := &yamlParser{opts: DefaultYAMLOptions()}

	assert.Equal(t, numberLit("1e3"), p.yamlFloat("1e3"))
	assert.Equal(t, numberLit("1000.5"), p.yamlFloat("1_000.5"))
	assert.Equal(t, "0.5", p.yamlFloat(".5").Number())
	assert.Equal(t, "5", p.yamlFloat("5.").Number())
	assert.Equal(t, Null(), p.yamlFloat(".nan"))
	assert.Equal(t, Null(), p.yamlFloat("-.inf"))

	keep := &yamlParser{opts: &YAMLOptions{NaNPolicy: FloatKeep, InfPolicy: FloatKeep}}
	assert.Equal(t, "NaN", keep.yamlFloat(".nan").Number())
	assert.Equal(t, "+Inf", keep.yamlFloat(".inf").Number())
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input float64
		want  string
	}{
		"nan":       {input: math.NaN(), want: "NaN"},
		"plus inf":  {input: math.Inf(1), want: "+Inf"},
		"minus inf": {input: math.Inf(-1), want: "-Inf"},
		"simple":    {input: 1.5, want: "1.5"},
		"huge":      {input: 1e100, want: "1e+100"},
		"integral":  {input: 100000, want: "100000"},
		"tiny":      {input: 1e-7, want: "1e-07"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatFloat(tt.input))
		})
	}
}

func TestNumbersEqual(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		a, b string
		want bool
	}{
		"int vs float spelling": {a: "1", b: "1.0", want: true},
		"exponent vs plain":     {a: "1e2", b: "100", want: true},
		"trailing zeros":        {a: "0.1", b: "0.10", want: true},
		"nan equals nan":        {a: "NaN", b: "NaN", want: true},
		"signed infinities":     {a: "+Inf", b: "-Inf", want: false},
		"non numeric":           {a: "x", b: "1", want: false},
		"different values":      {a: "1", b: "2", want: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, numbersEqual(tt.a, tt.b))
		})
	}
}

func TestQualify(t *testing.T) {
	t.Parallel()
	p := &xmlParser{opts: &XMLOptions{}}
	scopes := []map[string]string{{"urn:x": "ns", "urn:d": ""}}

	assert.Equal(t, "ns:item", p.qualify(xml.Name{Space: "urn:x", Local: "item"}, scopes))
	assert.Equal(t, "item", p.qualify(xml.Name{Space: "urn:d", Local: "item"}, scopes), "default namespace has no prefix")
	assert.Equal(t, "urn:y:item", p.qualify(xml.Name{Space: "urn:y", Local: "item"}, scopes), "undeclared URI passes through")
	assert.Equal(t, "item", p.qualify(xml.Name{Local: "item"}, scopes))

	stripped := &xmlParser{opts: &XMLOptions{RemoveNamespaces: true}}
	assert.Equal(t, "item", stripped.qualify(xml.Name{Space: "urn:x", Local: "item"}, scopes))
}

func TestNamespaceScope(t *testing.T) {
	t.Parallel()

	attrs := []xml.Attr{
		{Name: xml.Name{Space: "xmlns", Local: "ns"}, Value: "urn:x"},
		{Name: xml.Name{Local: "xmlns"}, Value: "urn:d"},
		{Name: xml.Name{Local: "id"}, Value: "7"},
	}
	scope := namespaceScope(nil, attrs)
	assert.Equal(t, map[string]string{"urn:x": "ns", "urn:d": ""}, scope)

	// Declarations extend a copy; the parent scope stays untouched.
	parent := map[string]string{"urn:p": "p"}
	child := namespaceScope([]map[string]string{parent}, attrs[:1])
	assert.Equal(t, map[string]string{"urn:p": "p", "urn:x": "ns"}, child)
	assert.Equal(t, map[string]string{"urn:p": "p"}, parent)
}

func TestWriteJSONStringEscapes(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input      string
		escapeHTML bool
		want       string
	}{
		"line separator":   {input: "a\u2028b", want: `"a\u2028b"`},
		"paragraph sep":    {input: "a\u2029b", want: `"a\u2029b"`},
		"control char":     {input: "a\x01b", want: `"a\u0001b"`},
		"named escapes":    {input: "a\t\r\n\"\\", want: `"a\t\r\n\"\\"`},
		"html off":         {input: "<a>&", want: `"<a>&"`},
		"html on":          {input: "<a>&", escapeHTML: true, want: `"\u003ca\u003e\u0026"`},
		"invalid utf8":     {input: "a\xffb", want: "\"a�b\""},
		"multibyte passes": {input: "héllo", want: `"héllo"`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			writeJSONString(&buf, tt.input, tt.escapeHTML)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCellText(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		value  Value
		nullAs string
		want   string
	}{
		"null empty":     {value: Null(), want: ""},
		"null token":     {value: Null(), nullAs: "N/A", want: "N/A"},
		"bool":           {value: Bool(true), want: "true"},
		"number literal": {value: numberLit("1e3"), want: "1e3"},
		"string":         {value: Str("x"), want: "x"},
		"nested array":   {value: Array(Int(1), Int(2)), want: "[1,2]"},
		"nested object":  {value: Object(Member{Key: "a", Value: Int(1)}), want: `{"a":1}`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cellText(tt.value, tt.nullAs))
		})
	}
}

func TestPreviewTruncation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, strings.Repeat("x", 48)+"...", preview(strings.Repeat("x", 60)))
	// Truncation counts runes, not bytes.
	assert.Equal(t, strings.Repeat("你", 48)+"...", preview(strings.Repeat("你", 50)))
}

func TestXMLWellFormed(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input    string
		wantRoot string
		wantOK   bool
	}{
		"nested":        {input: "<a><b/></a>", wantRoot: "a", wantOK: true},
		"self closing":  {input: "<a/>", wantRoot: "a", wantOK: true},
		"second root":   {input: "<a></a><b></b>", wantOK: false},
		"unclosed":      {input: "<a>", wantOK: false},
		"leading text":  {input: "text<a/>", wantOK: false},
		"mismatched":    {input: "<a></b>", wantOK: false},
		"with children": {input: "<r><x>1</x><x>2</x></r>", wantRoot: "r", wantOK: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root, ok := xmlWellFormed(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRoot, root)
		})
	}
}

func TestBase64DecodeAlphabets(t *testing.T) {
	t.Parallel()

	b, ok := base64Decode("SGk=")
	require.True(t, ok)
	assert.Equal(t, "Hi", string(b))

	b, ok = base64Decode("SGk")
	require.True(t, ok, "raw encoding without padding")
	assert.Equal(t, "Hi", string(b))

	_, ok = base64Decode("a-b_")
	assert.False(t, ok, "url-safe alphabet is not accepted")
}

func TestExtendAligns(t *testing.T) {
	t.Parallel()
	got := extendAligns([]Alignment{AlignRight}, 3)
	assert.Equal(t, []Alignment{AlignRight, AlignLeft, AlignLeft}, got)

	got = extendAligns([]Alignment{AlignRight, AlignCenter, AlignLeft}, 2)
	assert.Equal(t, []Alignment{AlignRight, AlignCenter}, got)
}

func TestAlignCell(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hi   ", alignCell("hi", 5, AlignLeft))
	assert.Equal(t, "   hi", alignCell("hi", 5, AlignRight))
	assert.Equal(t, " hi  ", alignCell("hi", 5, AlignCenter))
	assert.Equal(t, "hi", alignCell("hi", 1, AlignLeft), "never truncates")
	assert.Equal(t, "  你", alignCell("你", 4, AlignRight), "pads by display width")
}
