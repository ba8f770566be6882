// Package transmute detects the likely format of arbitrary text and
// converts data between CSV, TSV, JSON, JSON Lines, YAML, XML, Markdown,
// and HTML representations.
//
// Every conversion flows through one canonical tree: parsers produce a
// [Value] and encoders consume one, so any parse direction composes with
// any encode direction. Conversions are pure functions of their input and
// options; the package holds no global state and every call is safe for
// concurrent use.
//
// # Canonical Tree
//
// [Value] is a sum type over null, bool, number, string, array, and object.
// Object member order is preserved end to end unless an encode option
// requests sorting. Numbers keep their source literal, so 64-bit integers
// and exponent notation survive round trips; NaN and ±Inf are representable
// in the tree and policed at the JSON boundary, which has no literal for
// them.
//
// # Parsing and Encoding
//
// Each format has a Parse/Encode pair taking the input and an options
// struct; nil options mean the documented defaults:
//
//	res, err := transmute.ParseCSV(input, nil)
//	out, err := transmute.EncodeYAML(res.Data, nil)
//
// [ParseCSV] tokenizes with full quoted-field support (embedded delimiters,
// doubled quotes, literal newlines), resolves or synthesizes headers, runs
// an optional type-inference pipeline, and shapes the output as row
// objects, a columnar table, or groups keyed by the first column. [ParseYAML]
// handles multi-document streams and expands anchors. [ParseXML] folds
// attributes per [AttributeMode] and collapses repeated siblings into
// arrays. Encoders exist for every format, including Markdown and HTML
// tables for tabular trees.
//
// # Convert
//
// [Convert] composes a parse and an encode in one call:
//
//	res, err := transmute.Convert(input, transmute.CSV, transmute.YAML, nil)
//
// Use [ParseFormat] to map a CLI flag string onto a [Format].
//
// # Detection
//
// [Detect] classifies a string by running an ordered matcher cascade (JWT,
// Base64, JSON, URLs, UUIDs, hashes, timestamps, markup, and more); the
// first matcher to claim the input wins. The result carries a relative
// confidence, suggested downstream tools, and chain suggestions when the
// decoded content itself matches a second format (Base64 that decodes to
// JSON, for example). Detection never fails and never touches the
// converters.
//
// # Results and Warnings
//
// Operations return a [Result] holding the parsed tree or rendered text,
// row and column counts for tabular input, format-specific metadata, and
// warnings. Lossy-but-usable conversions (padded CSV rows, expanded YAML
// anchors, special floats entering JSON) succeed with warnings rather than
// failing; the warning plus metadata is the documentation of the loss.
//
// # Errors
//
// Expected failures are classified by sentinel errors for [errors.Is]:
//
//   - [ErrEmptyInput] — empty or blank input
//   - [ErrMalformedSyntax] — unparseable CSV/JSON/YAML/XML, with position
//   - [ErrInconsistentColumns] — CSV strict-mode width mismatch
//   - [ErrUnsupportedValue] — value has no representation in the target
//   - [ErrUnsupportedFormat] — unknown format name
//   - [ErrInternal] — unexpected failure recovered at the boundary
package transmute
