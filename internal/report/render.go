// Package report renders validation reports and work item listings for the
// terminal.
package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/redphin/punchlist/internal/domain"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	subjectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Validation renders one validation report: a styled summary line plus a
// failure table when the run found problems.
func Validation(r domain.ValidationReport) string {
	var b strings.Builder
	b.WriteString(subjectStyle.Render(r.Subject))
	b.WriteString(" ")
	if r.Passed() {
		b.WriteString(passedStyle.Render(r.Summary()))
		return b.String()
	}
	b.WriteString(failedStyle.Render(r.Summary()))
	b.WriteString("\n")

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Instance", "Class", "Message"})
	for _, failure := range r.Failures {
		tw.AppendRow(table.Row{failure.SubjectID, failure.Class, firstLine(failure.Message)})
	}
	b.WriteString(tw.Render())
	return b.String()
}

// WorkItems renders work items as a table in their given order.
func WorkItems(items []domain.WorkItem) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Priority", "Name", "Category", "Done"})
	for _, item := range items {
		tw.AppendRow(table.Row{item.ID, item.Priority, item.DisplayName, item.CategoryID, item.Done})
	}
	return tw.Render()
}

// Categories renders categories as a table in their given order.
func Categories(categories []domain.Category) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Order", "Name", "Cap"})
	for _, category := range categories {
		tw.AppendRow(table.Row{category.ID, category.SortOrder, category.DisplayName, category.MaxItemsShownByDefault})
	}
	return tw.Render()
}

// firstLine truncates multi-line failure messages (synthesized stack
// captures) to their headline for tabular display.
func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return line
}
