package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusRecording = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444")).
			Blink(true)

	// Sparkline bar colors
	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// GradientText colours each rune of text along a Lab blend.
func GradientText(text string, startColor, endColor string) string {
	start, end := mustHex(startColor), mustHex(endColor)
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := start.BlendLab(end, t).Clamped()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return b.String()
}

// ProgressBar renders a fill bar coloured by how full it is.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 0.8 {
		return SparkHigh.Render(bar)
	} else if percent > 0.4 {
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// SparklineChart renders a mini sparkline of the last width values.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}

	return result.String()
}
