package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, route stops
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors, destination
	colorBlue   = lipgloss.Color("75")  // Light blue - start
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleStart = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	styleEnd   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleStop  = lipgloss.NewStyle().Foreground(colorGreen)
	styleTime  = lipgloss.NewStyle().Foreground(colorGray).Italic(true)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconDown    = "↓"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Route Results
// =============================================================================

// formatMinutes formats a minute count without trailing zeros.
func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// keyValue renders a labeled value.
func keyValue(key, value string) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	return keyStyle.Render(key) + " " + StyleValue.Render(value)
}

// resultPanel renders the metrics and the stop list of a route result.
func resultPanel(r *route.Result, start, end string) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(start + " " + iconArrow + " " + end))
	b.WriteString("\n\n")
	b.WriteString(keyValue("Total time", StyleNumber.Render(formatMinutes(r.Cost)+" min")) + "\n")
	b.WriteString(keyValue("Explored", fmt.Sprintf("%d nodes", r.NodesExplored)) + "\n")
	b.WriteString(keyValue("Computed in", formatMinutes(r.ComputeSeconds)+"s") + "\n")
	b.WriteString(keyValue("Stops", strconv.Itoa(len(r.Stops))) + "\n\n")

	last := len(r.Stops) - 1
	for i, s := range r.Stops {
		style := styleStop
		switch i {
		case 0:
			style = styleStart
		case last:
			style = styleEnd
		}
		fmt.Fprintf(&b, "%s %s\n", StyleNumber.Render(fmt.Sprintf("%3d", s.Order)), style.Render(s.Place))
		if s.NextMinutes != nil && *s.NextMinutes > 0 {
			fmt.Fprintf(&b, "    %s\n", styleTime.Render(iconDown+" "+formatMinutes(*s.NextMinutes)+" minutes"))
		}
	}
	return b.String()
}

// printResult prints the result panel.
func printResult(r *route.Result, start, end string) {
	fmt.Print(resultPanel(r, start, end))
}

// placesTable renders the places table with their schematic and
// geographic coordinates.
func placesTable(places []route.Place) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(places))
	for i, p := range places {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			p.Name,
			fmt.Sprintf("%.0f, %.0f", p.Pos.X, p.Pos.Y),
			fmt.Sprintf("%.5f, %.5f", p.Geo.Lat, p.Geo.Lng),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Place", "Schematic", "Lat, Lng").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col >= 2:
				return lipgloss.NewStyle().Foreground(colorDim)
			default:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
		})
	return t.Render()
}
