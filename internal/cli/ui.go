package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hapkiduki/boxpack/internal/application/dto"
)

var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
	colorCyan  = lipgloss.Color("86")

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleValue   = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
)

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, "  "+styleKey.Render(key)+" "+styleValue.Render(value))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, styleError.Render(iconError)+" "+err.Error())
	for _, ve := range dto.ValidationErrorsFrom(err) {
		fmt.Fprintln(w, "  "+styleDim.Render(ve.Field+": "+ve.Message))
	}
}

func formatDims(d dto.DimensionsResponse) string {
	return fmt.Sprintf("%g x %g x %g", d.Width, d.Height, d.Length)
}

func formatPoint(p dto.PointResponse) string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// formatPath renders a placement path as dotted child indices.
func formatPath(path []int) string {
	if len(path) == 0 {
		return "root"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// renderLayout writes a summary of the layout followed by a table of every
// placed box.
func renderLayout(w io.Writer, l *dto.LayoutResponse) {
	fmt.Fprintln(w, styleTitle.Render("Layout "+l.Name)+" "+styleDim.Render(l.ID.String()))
	printKeyValue(w, "container", formatDims(l.Container))
	printKeyValue(w, "items", strconv.Itoa(l.ItemCount))
	printKeyValue(w, "volume", fmt.Sprintf("%.2f", l.Volume))
	printKeyValue(w, "utilization", fmt.Sprintf("%.1f%%", l.Utilization*100))
	if l.Unit > 0 {
		printKeyValue(w, "unit", fmt.Sprintf("%g", l.Unit))
	}

	rows := make([][]string, 0, len(l.Placements))
	for _, p := range l.Placements {
		rows = append(rows, []string{
			formatPath(p.Path),
			formatDims(p.Dimensions),
			fmt.Sprintf("%g", p.Margin),
			formatPoint(p.Bounds.Min),
			formatPoint(p.Bounds.Max),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("Path", "Size", "Margin", "Min", "Max").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}

// renderFit writes the fit verdict and, when requested, the verdict for a
// rotated box.
func renderFit(w io.Writer, f *dto.FitResponse) {
	verdict := func(fits bool) string {
		if fits {
			return styleSuccess.Render(iconSuccess) + " fits"
		}
		return styleError.Render(iconError) + " does not fit"
	}

	fmt.Fprintf(w, "%s box %s in container %s\n", verdict(f.Fits), formatDims(f.Box), formatDims(f.Container))
	if f.FitsRotated != nil {
		fmt.Fprintf(w, "%s when rotated\n", verdict(*f.FitsRotated))
	}
}
