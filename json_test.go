package transmute_test

import (
	"math"
	"testing"

	"github.com/bjaus/transmute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input string
		check func(t *testing.T, v transmute.Value)
	}{
		"object keeps member order": {
			input: `{"b":1,"a":2,"m":3}`,
			check: func(t *testing.T, v transmute.Value) {
				members := v.Members()
				require.Len(t, members, 3)
				assert.Equal(t, "b", members[0].Key)
				assert.Equal(t, "a", members[1].Key)
				assert.Equal(t, "m", members[2].Key)
			},
		},
		"number literals survive": {
			input: `{"big":9007199254740993,"exp":1e100,"neg":-0.5}`,
			check: func(t *testing.T, v transmute.Value) {
				big, _ := v.Get("big")
				assert.Equal(t, "9007199254740993", big.Number())
				exp, _ := v.Get("exp")
				assert.Equal(t, "1e100", exp.Number())
				neg, _ := v.Get("neg")
				assert.Equal(t, "-0.5", neg.Number())
			},
		},
		"nested values": {
			input: `{"a":[1,"x",null,true],"o":{"k":"v"}}`,
			check: func(t *testing.T, v transmute.Value) {
				a, _ := v.Get("a")
				require.Equal(t, 4, a.Len())
				assert.True(t, a.Items()[2].IsNull())
				o, _ := v.Get("o")
				k, ok := o.Get("k")
				require.True(t, ok)
				assert.Equal(t, "v", k.Str())
			},
		},
		"top-level scalar": {
			input: `"hello"`,
			check: func(t *testing.T, v transmute.Value) {
				assert.Equal(t, "hello", v.Str())
			},
		},
		"top-level array": {
			input: `[1,2,3]`,
			check: func(t *testing.T, v transmute.Value) {
				assert.Equal(t, 3, v.Len())
			},
		},
		"unicode and escapes": {
			input: `{"s":"line\nbreak é"}`,
			check: func(t *testing.T, v transmute.Value) {
				s, _ := v.Get("s")
				assert.Equal(t, "line\nbreak é", s.Str())
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := transmute.ParseJSON(tt.input)
			require.NoError(t, err)
			tt.check(t, res.Data)
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		input    string
		wantErr  error
		contains string
	}{
		"empty":             {input: "", wantErr: transmute.ErrEmptyInput},
		"whitespace only":   {input: "  \n\t ", wantErr: transmute.ErrEmptyInput},
		"bad token":         {input: `{"a":tru}`, wantErr: transmute.ErrMalformedSyntax, contains: "offset"},
		"unclosed object":   {input: `{"a":1`, wantErr: transmute.ErrMalformedSyntax, contains: "unexpected end"},
		"unclosed array":    {input: `[1,2`, wantErr: transmute.ErrMalformedSyntax, contains: "unexpected end"},
		"trailing garbage":  {input: `{"a":1} extra`, wantErr: transmute.ErrMalformedSyntax},
		"second value":      {input: `{"a":1}{"b":2}`, wantErr: transmute.ErrMalformedSyntax, contains: "after top-level"},
		"bare string chunk": {input: `hello`, wantErr: transmute.ErrMalformedSyntax},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := transmute.ParseJSON(tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	tree := func(s string) transmute.Value {
		res, err := transmute.ParseJSON(s)
		require.NoError(t, err)
		return res.Data
	}

	tests := map[string]struct {
		value transmute.Value
		opts  *transmute.JSONEncodeOptions
		want  string
	}{
		"compact by default": {
			value: tree(`{"b":1,"a":[true,null,"x"]}`),
			want:  `{"b":1,"a":[true,null,"x"]}`,
		},
		"literal passthrough": {
			value: tree(`[9007199254740993,1e100,-0.5]`),
			want:  `[9007199254740993,1e100,-0.5]`,
		},
		"indent": {
			value: tree(`{"a":1,"b":[1,2]}`),
			opts:  &transmute.JSONEncodeOptions{Indent: 2},
			want:  "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}",
		},
		"sort keys": {
			value: tree(`{"b":1,"a":{"d":4,"c":3}}`),
			opts:  &transmute.JSONEncodeOptions{SortKeys: true},
			want:  `{"a":{"c":3,"d":4},"b":1}`,
		},
		"html unescaped by default": {
			value: transmute.Str("<b> & </b>"),
			want:  `"\u003cb\u003e \u0026 \u003c/b\u003e"`,
		},
		"html escaping": {
			value: transmute.Str("<b> & </b>"),
			opts:  &transmute.JSONEncodeOptions{EscapeHTML: true},
			want:  `"\u003cb\u003e \u0026 \u003c/b\u003e"`,
		},
		"control characters": {
			value: transmute.Str("a\nb\tc\x01"),
			want:  `"a\nb\tc\u0001"`,
		},
		"line separators escaped": {
			value: transmute.Str("a\u2028b\u2029"),
			want:  `"a\u2028b\u2029"`,
		},
		"empty structures": {
			value: tree(`{"a":[],"b":{}}`),
			want:  `{"a":[],"b":{}}`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := transmute.EncodeJSON(tt.value, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestEncodeJSONSpecialFloats(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		value transmute.Value
		opts  *transmute.JSONEncodeOptions
		want  string
	}{
		"nan defaults to null":  {value: transmute.Float(math.NaN()), want: "null"},
		"inf defaults to null":  {value: transmute.Float(math.Inf(1)), want: "null"},
		"nan as string":         {value: transmute.Float(math.NaN()), opts: &transmute.JSONEncodeOptions{NaNPolicy: transmute.FloatString}, want: `"NaN"`},
		"inf as string":         {value: transmute.Float(math.Inf(1)), opts: &transmute.JSONEncodeOptions{InfPolicy: transmute.FloatString}, want: `"Infinity"`},
		"negative inf string":   {value: transmute.Float(math.Inf(-1)), opts: &transmute.JSONEncodeOptions{InfPolicy: transmute.FloatString}, want: `"-Infinity"`},
		"policies independent":  {value: transmute.Array(transmute.Float(math.NaN()), transmute.Float(math.Inf(1))), opts: &transmute.JSONEncodeOptions{NaNPolicy: transmute.FloatString}, want: `["NaN",null]`},
		"finite floats ignored": {value: transmute.Float(2.5), opts: &transmute.JSONEncodeOptions{NaNPolicy: transmute.FloatString}, want: "2.5"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := transmute.EncodeJSON(tt.value, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestEncodeJSONKeepReportsLoss(t *testing.T) {
	t.Parallel()

	v := transmute.Object(
		transmute.Member{Key: "n", Value: transmute.Float(math.NaN())},
	)
	res, err := transmute.EncodeJSON(v, &transmute.JSONEncodeOptions{NaNPolicy: transmute.FloatKeep})
	require.NoError(t, err)
	assert.Equal(t, `{"n":null}`, res.Output)
	assert.Equal(t, true, res.Metadata[transmute.MetaDataLoss])
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no JSON representation")
}

// A parse/encode pair must reproduce the input byte for byte when the
// source is already compact: key order, literal spellings, escapes.
func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()
	inputs := []string{
		`{"b":1,"a":2}`,
		`{"z":{"y":[1,2.5,"3"],"x":null},"w":true}`,
		`[9007199254740993,1e100,1E-7,-0.0]`,
		`{"s":"tab\ttext","u":"é✓"}`,
		`[]`,
		`{}`,
		`"plain"`,
	}
	for _, input := range inputs {
		parsed, err := transmute.ParseJSON(input)
		require.NoError(t, err, input)
		encoded, err := transmute.EncodeJSON(parsed.Data, nil)
		require.NoError(t, err, input)
		assert.Equal(t, input, encoded.Output)
	}
}
