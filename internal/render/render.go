// Package render formats assessments for the terminal using lipgloss.
package render

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 30

var (
	approvedColor = lipgloss.Color("#4ECDC4")
	reviewColor   = lipgloss.Color("#FFE66D")
	rejectedColor = lipgloss.Color("#FF6B6B")
	subtleColor   = lipgloss.Color("#666666")
	barColor      = lipgloss.Color("#95E1D3")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	ScoreStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(reviewColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(rejectedColor).
			Bold(true)

	BarStyle = lipgloss.NewStyle().
			Foreground(barColor)
)

func decisionColor(d scoring.Decision) lipgloss.Color {
	switch d {
	case scoring.DecisionApproved:
		return approvedColor
	case scoring.DecisionManualReview:
		return reviewColor
	default:
		return rejectedColor
	}
}

// Assessment renders the score card: score out of 1000, decision, risk flags
// and the importance chart.
func Assessment(a scoring.Assessment) string {
	color := decisionColor(a.Decision)

	score := ScoreStyle.
		BorderForeground(color).
		Render(fmt.Sprintf("%d / %d", a.CreditScore, scoring.MaxScore))
	decision := lipgloss.NewStyle().Foreground(color).Bold(true).Render(a.Decision.Label())

	sections := []string{
		TitleStyle.Render("Credit Risk Assessment"),
		score,
		decision,
		SubtleStyle.Render(fmt.Sprintf("default probability %.4f  schema %s  policy %s",
			a.RawProbability, a.Schema, a.Policy)),
		"",
		Flags(a.RiskFlags),
	}

	if len(a.Importances) > 0 {
		sections = append(sections, "", Importances(a.Importances, defaultBarWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Flags renders one line per advisory flag
func Flags(flags []scoring.FlagNote) string {
	if len(flags) == 0 {
		return SubtleStyle.Render("No risk flags raised.")
	}

	lines := make([]string, 0, len(flags))
	for _, f := range flags {
		style := WarningStyle
		if f.Flag == scoring.FlagSolidProfile {
			style = lipgloss.NewStyle().Foreground(approvedColor)
		}
		lines = append(lines, style.Render("• "+f.Message))
	}
	return strings.Join(lines, "\n")
}

// Importances renders a horizontal bar per feature, scaled so the largest
// importance fills width cells. The input order is kept.
func Importances(importances []scoring.FeatureImportance, width int) string {
	if len(importances) == 0 {
		return SubtleStyle.Render("No feature importances available.")
	}
	if width <= 0 {
		width = defaultBarWidth
	}

	nameWidth, maxValue := 0, 0.0
	for _, fi := range importances {
		nameWidth = max(nameWidth, len(fi.Feature))
		maxValue = math.Max(maxValue, fi.Importance)
	}

	lines := []string{HeaderStyle.Render("Feature Importance")}
	for _, fi := range importances {
		lines = append(lines, fmt.Sprintf("%-*s %s %.3f",
			nameWidth, fi.Feature, BarStyle.Render(Bar(fi.Importance, maxValue, width)), fi.Importance))
	}
	return strings.Join(lines, "\n")
}

// Bar draws value relative to maxValue as width cells
func Bar(value, maxValue float64, width int) string {
	filled := 0
	if maxValue > 0 && value > 0 {
		filled = int(math.Round(value / maxValue * float64(width)))
	}
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Error renders a failure in the terminal's error style, followed by one
// line per offending field when the failure carries details.
func Error(err error) string {
	lines := []string{ErrorStyle.Render("✗ " + err.Error())}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		details := appErr.DetailMessages()
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, SubtleStyle.Render(fmt.Sprintf("  %s: %s", k, details[k])))
		}
	}
	return strings.Join(lines, "\n")
}
