// ABOUTME: Terminal rendering of the pipeline board and order tracking
// ABOUTME: Styled with lipgloss; colors degrade to plain text when stdout is not a terminal
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/pipeline"
	"github.com/victor-4502/naova-mvp-sub002/tracking"
)

const barWidth = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stageStyle   = lipgloss.NewStyle().Width(14)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cancelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// RenderBoard draws one bar per stage, followed by the newest requests in
// each non-empty stage (at most perStage of them).
func RenderBoard(board *pipeline.Board, perStage int) string {
	var out strings.Builder

	title := "PIPELINE"
	if board.ClientID != nil {
		title = fmt.Sprintf("PIPELINE · %s", *board.ClientID)
	}
	out.WriteString(titleStyle.Render(title))
	out.WriteString("\n\n")

	maxCount := 1
	for _, col := range board.Columns {
		if len(col.Requests) > maxCount {
			maxCount = len(col.Requests)
		}
	}

	for _, col := range board.Columns {
		n := len(col.Requests)
		filled := (n * barWidth) / maxCount
		bar := barStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
		out.WriteString(fmt.Sprintf("  %s %s %3d\n", stageStyle.Render(string(col.Stage)), bar, n))
	}
	out.WriteString(fmt.Sprintf("\n  Total: %d request(s)\n", board.Total))

	if perStage <= 0 {
		return out.String()
	}
	for _, col := range board.Columns {
		if len(col.Requests) == 0 {
			continue
		}
		out.WriteString("\n")
		out.WriteString(titleStyle.Render(strings.ToUpper(string(col.Stage))))
		out.WriteString("\n")

		start := len(col.Requests) - perStage
		if start < 0 {
			start = 0
		}
		for _, req := range col.Requests[start:] {
			out.WriteString(fmt.Sprintf("  %s  %-10s %-16s %s\n",
				req.ID.String()[:8], req.ClientID, string(req.Status), summary(req, 48)))
		}
		if start > 0 {
			out.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more\n", start)))
		}
	}
	return out.String()
}

// RenderTracking lists the status chain with visited steps checked.
func RenderTracking(info *tracking.Info) string {
	var out strings.Builder
	out.WriteString(titleStyle.Render("ORDER " + info.OrderID.String()))
	out.WriteString(fmt.Sprintf("\n  client: %s  payment: %s\n", info.ClientID, info.PaymentStatus))
	if info.EstimatedCompletion != nil {
		out.WriteString(fmt.Sprintf("  estimated completion: %s\n", info.EstimatedCompletion.Format("2006-01-02")))
	}
	out.WriteString("\n")

	visited := make(map[models.POStatus]bool, len(info.Timeline))
	for _, e := range info.Timeline {
		visited[e.Status] = true
	}

	for _, status := range models.POStatusChain() {
		switch {
		case status == info.CurrentStatus:
			out.WriteString(currentStyle.Render("  ▶ " + string(status)))
		case visited[status]:
			out.WriteString(doneStyle.Render("  ✓ " + string(status)))
		default:
			out.WriteString(mutedStyle.Render("  · " + string(status)))
		}
		out.WriteString("\n")
	}
	if info.CurrentStatus == models.POCancelled {
		out.WriteString(cancelStyle.Render("  ✗ " + string(models.POCancelled)))
		out.WriteString("\n")
	}

	if len(info.Timeline) > 0 {
		out.WriteString("\n")
		out.WriteString(titleStyle.Render("TIMELINE"))
		out.WriteString("\n")
		for _, e := range info.Timeline {
			out.WriteString(fmt.Sprintf("  %s  %-20s %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Status, e.Description))
		}
	}
	return out.String()
}

func summary(req *models.Request, max int) string {
	text := req.NormalizedContent
	if text == "" {
		text = req.RawContent
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
