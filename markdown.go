package transmute

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment positions cell text within a column. Used by the Markdown and
// HTML encoders.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// MarkdownEncodeOptions configures [EncodeMarkdown].
type MarkdownEncodeOptions struct {
	// Aligns sets per-column alignment; unlisted columns are left-aligned.
	Aligns []Alignment
}

// EncodeMarkdown renders a tabular tree as a GitHub-flavored Markdown
// table. Cells are padded by display width so wide characters keep columns
// aligned; pipes and newlines inside cells are escaped. A header row is
// required: arrays of arrays must come wrapped in the columnar shape.
func EncodeMarkdown(v Value, opts *MarkdownEncodeOptions) (res *Result, err error) {
	defer guard(&err)

	if opts == nil {
		opts = &MarkdownEncodeOptions{}
	}

	headers, rawRows, err := tableFromValue(v, nil)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: markdown table requires headers", ErrUnsupportedValue)
	}
	numCols := len(headers)

	hdr := make([]string, numCols)
	for i, h := range headers {
		hdr[i] = markdownCell(h)
	}
	rows := make([][]string, len(rawRows))
	for i, cells := range rawRows {
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = markdownCell(cellText(c, ""))
		}
		rows[i] = row
	}

	// Column widths, minimum 3 for the alignment markers.
	widths := make([]int, numCols)
	for i, col := range hdr {
		if w := runewidth.StringWidth(col); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); i < numCols && w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	aligns := extendAligns(opts.Aligns, numCols)

	var sb strings.Builder
	markdownRow(&sb, hdr, widths, aligns)

	sep := make([]string, numCols)
	for i, width := range widths {
		switch aligns[i] {
		case AlignRight:
			sep[i] = strings.Repeat("-", width-1) + ":"
		case AlignCenter:
			sep[i] = ":" + strings.Repeat("-", width-2) + ":"
		default:
			sep[i] = strings.Repeat("-", width)
		}
	}
	fmt.Fprintf(&sb, "| %s |\n", strings.Join(sep, " | "))

	for _, row := range rows {
		markdownRow(&sb, row, widths, aligns)
	}

	return &Result{Output: sb.String(), RowCount: len(rows), ColumnCount: numCols}, nil
}

func markdownRow(sb *strings.Builder, cells []string, widths []int, aligns []Alignment) {
	padded := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded[i] = alignCell(cell, width, aligns[i])
	}
	fmt.Fprintf(sb, "| %s |\n", strings.Join(padded, " | "))
}

// markdownCell escapes characters that would break table structure.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func extendAligns(aligns []Alignment, numCols int) []Alignment {
	if len(aligns) >= numCols {
		return aligns[:numCols]
	}
	extended := make([]Alignment, numCols)
	copy(extended, aligns)
	return extended
}

func alignCell(s string, width int, align Alignment) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", pad) + s
	case AlignCenter:
		left := pad / 2
		right := pad - left
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
	default:
		return s + strings.Repeat(" ", pad)
	}
}
