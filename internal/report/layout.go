package report

import "strings"

const (
	// DefaultBaseRowHeight is the height of a one-line data row in points.
	DefaultBaseRowHeight = 20.0
	// DefaultLineHeightStep is added for every line beyond the first.
	DefaultLineHeightStep = 15.0
	// DefaultHeaderRowHeight is the fixed header row height.
	DefaultHeaderRowHeight = 30.0
)

// Layout computes data row heights from their line counts.
type Layout struct {
	BaseRowHeight   float64
	LineHeightStep  float64
	HeaderRowHeight float64
}

// DefaultLayout returns the standard row geometry.
func DefaultLayout() Layout {
	return Layout{
		BaseRowHeight:   DefaultBaseRowHeight,
		LineHeightStep:  DefaultLineHeightStep,
		HeaderRowHeight: DefaultHeaderRowHeight,
	}
}

func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.BaseRowHeight <= 0 {
		l.BaseRowHeight = def.BaseRowHeight
	}
	if l.LineHeightStep <= 0 {
		l.LineHeightStep = def.LineHeightStep
	}
	if l.HeaderRowHeight <= 0 {
		l.HeaderRowHeight = def.HeaderRowHeight
	}
	return l
}

// RowLayout is the computed geometry of one data row.
type RowLayout struct {
	LineCount int
	Height    float64
}

// LineCount returns the number of newline-delimited segments in s, at least 1.
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// Row computes the layout of a row whose tallest cells are the supplier
// name and the HSN display block.
func (l Layout) Row(name, hsnDisplay string) RowLayout {
	lines := max(1, LineCount(name), LineCount(hsnDisplay))
	return RowLayout{LineCount: lines, Height: l.Height(lines)}
}

// Height returns the row height for a given line count.
func (l Layout) Height(lines int) float64 {
	if lines < 1 {
		lines = 1
	}
	return l.BaseRowHeight + float64(lines-1)*l.LineHeightStep
}
