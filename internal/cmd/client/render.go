package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	"github.com/fundacionmisionvida7/Pagina/internal/journal"
)

var (
	accent  = lipgloss.Color("#7C3AED")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
	dimStyle  = lipgloss.NewStyle().Foreground(dim)
	okStyle   = lipgloss.NewStyle().Foreground(success)
	failStyle = lipgloss.NewStyle().Foreground(danger)
	warnStyle = lipgloss.NewStyle().Foreground(warning)
)

// renderSummary prints one broadcast: the counters in a box followed by one
// line per delivery.
func renderSummary(sum dispatch.Summary) string {
	var b strings.Builder
	title := headerStyle.Render(fmt.Sprintf("Broadcast %s", sum.ID))
	counts := fmt.Sprintf("%s  %s  %s",
		okStyle.Render(fmt.Sprintf("sent %d", sum.Sent)),
		failStyle.Render(fmt.Sprintf("failed %d", sum.Failed)),
		warnStyle.Render(fmt.Sprintf("pruned %d", sum.Pruned)),
	)
	meta := dimStyle.Render(fmt.Sprintf("%s %q in %s", sum.Kind, sum.Title, sum.Duration().Round(time.Millisecond)))
	b.WriteString(boxStyle.Render(title + "\n" + counts + "\n" + meta))
	b.WriteString("\n")
	for _, d := range sum.Details {
		b.WriteString(renderDetail(d))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDetail(d dispatch.Detail) string {
	mark := okStyle.Render("✓")
	switch d.Outcome {
	case delivery.PermanentFailure:
		mark = failStyle.Render("✗")
	case delivery.TransientFailure:
		mark = warnStyle.Render("!")
	}
	line := fmt.Sprintf("%s %s", mark, d.Endpoint)
	if d.StatusCode != 0 {
		line += dimStyle.Render(fmt.Sprintf(" [%d]", d.StatusCode))
	}
	if d.Pruned {
		line += warnStyle.Render(" pruned")
	}
	if d.Error != "" {
		line += dimStyle.Render(" " + d.Error)
	}
	return line
}

// renderHistory prints one line per journal entry under a header counting
// the whole journal.
func renderHistory(entries []journal.Entry, total int) string {
	if len(entries) == 0 {
		return dimStyle.Render("no broadcasts yet") + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Recent broadcasts (%d of %d)", len(entries), total)))
	b.WriteString("\n")
	for _, e := range entries {
		s := e.Summary
		fmt.Fprintf(&b, "#%d %s %-6s %s %s %s\n",
			e.Seq,
			dimStyle.Render(e.RecordedAt.Local().Format("2006-01-02 15:04")),
			s.Kind,
			okStyle.Render(fmt.Sprintf("sent=%d", s.Sent)),
			failStyle.Render(fmt.Sprintf("failed=%d", s.Failed)),
			warnStyle.Render(fmt.Sprintf("pruned=%d", s.Pruned)),
		)
	}
	return b.String()
}

// renderSubscribers prints the endpoints with their age.
func renderSubscribers(subs []subscriberView) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d subscriptions", len(subs))))
	b.WriteString("\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "%s %s\n", dimStyle.Render(s.CreatedAt.Local().Format("2006-01-02 15:04")), s.Endpoint)
	}
	return b.String()
}

// RenderDevotional frames a devotional for the terminal.
func RenderDevotional(d devotional.Devotional) string {
	body := lipgloss.NewStyle().Width(72).Render(d.Content)
	return boxStyle.Render(headerStyle.Render(d.Title)+"\n"+dimStyle.Render(d.Date)+"\n\n"+body) + "\n"
}
