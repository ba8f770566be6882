package transmute

import (
	"fmt"
	"html"
	"strings"
)

// HTMLEncodeOptions configures [EncodeHTML].
type HTMLEncodeOptions struct {
	// Caption emits a <caption> element when non-empty.
	Caption string
	// Aligns adds per-column text-align styles; unlisted columns have none.
	Aligns []Alignment
}

// EncodeHTML renders a tabular tree as an HTML table with thead and tbody
// sections. All cell text is escaped. A table without headers skips thead.
func EncodeHTML(v Value, opts *HTMLEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = &HTMLEncodeOptions{}
	}

	headers, rows, err := tableFromValue(v, nil)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("<table>\n")
	if opts.Caption != "" {
		fmt.Fprintf(&sb, "  <caption>%s</caption>\n", html.EscapeString(opts.Caption))
	}
	if len(headers) > 0 {
		sb.WriteString("  <thead>\n    <tr>\n")
		for i, col := range headers {
			fmt.Fprintf(&sb, "      <th%s>%s</th>\n", alignStyle(opts.Aligns, i), html.EscapeString(col))
		}
		sb.WriteString("    </tr>\n  </thead>\n")
	}
	sb.WriteString("  <tbody>\n")
	for _, cells := range rows {
		sb.WriteString("    <tr>\n")
		for i, c := range cells {
			fmt.Fprintf(&sb, "      <td%s>%s</td>\n", alignStyle(opts.Aligns, i), html.EscapeString(cellText(c, "")))
		}
		sb.WriteString("    </tr>\n")
	}
	sb.WriteString("  </tbody>\n</table>\n")

	numCols := len(headers)
	if numCols == 0 && len(rows) > 0 {
		numCols = len(rows[0])
	}
	return &Result{Output: sb.String(), RowCount: len(rows), ColumnCount: numCols}, nil
}

func alignStyle(aligns []Alignment, col int) string {
	if col >= len(aligns) {
		return ""
	}
	switch aligns[col] {
	case AlignRight:
		return ` style="text-align: right"`
	case AlignCenter:
		return ` style="text-align: center"`
	default:
		return ""
	}
}
