package transmute

// Result is the successful outcome of a conversion. Parsing fills Data with
// the canonical tree; encoding fills Output with rendered text. RowCount and
// ColumnCount are populated by the tabular converters and stay 0 elsewhere.
// Warnings report recoverable losses (padded rows, expanded anchors, degraded
// NaN values) that did not prevent producing usable output; Metadata carries
// format-specific diagnostics for display, keyed by the Meta* constants, and
// is never read back by the library itself.
type Result struct {
	Data        Value
	Output      string
	RowCount    int
	ColumnCount int
	Warnings    []string
	Metadata    map[string]any
}

// Metadata keys used by the converters.
const (
	MetaDocumentCount = "documentCount" // YAML: number of documents parsed
	MetaAnchorCount   = "anchorCount"   // YAML: anchors expanded during parse
	MetaDataLoss      = "dataLoss"      // YAML/JSON: true when a value had no representation
	MetaInputBytes    = "inputBytes"    // XML: size of the source text
	MetaOutputBytes   = "outputBytes"   // XML: size of the produced tree or text
	MetaElementCount  = "elementCount"  // XML: elements visited
	MetaProcessingMS  = "processingMs"  // XML: wall-clock parse time in milliseconds
	MetaDelimiter     = "delimiter"     // CSV: delimiter in effect
	MetaHeaders       = "headers"       // CSV: resolved header names
)

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) meta(key string, v any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = v
}
