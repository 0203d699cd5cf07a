package digest

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/types"
)

var (
	cornYellow = lipgloss.AdaptiveColor{Light: "#a16207", Dark: "#facc15"}
	mutedGray  = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(cornYellow).MarginBottom(1)
	topicStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	authorStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedGray)
	postStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1).
			Width(78)
)

// Terminal renders the page for a terminal. Without color it falls back to
// the plain text rendering.
func (b *Builder) Terminal(page *app.Page, sections []types.Section, color bool) string {
	data := b.data(page, sections, b.defaultTheme)
	if !color {
		return buildPlainText(data)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s", data.SiteTitle, data.Title)))
	sb.WriteString("\n")

	for _, t := range data.Topics {
		sb.WriteString(topicStyle.Render(t.Title))
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(78).Render(t.Content))
		sb.WriteString("\n\n")
	}

	for _, p := range data.Posts {
		if p.Hidden {
			continue
		}
		header := authorStyle.Render(p.AuthorName) + " " + mutedStyle.Render("@"+p.Handle)
		footer := mutedStyle.Render(fmt.Sprintf("%d respostas · %d reposts · %d curtidas  %s",
			p.Replies, p.Reposts, p.Likes, p.URL))
		sb.WriteString(postStyle.Render(header + "\n" + p.Content + "\n" + footer))
		sb.WriteString("\n")
	}

	sb.WriteString(mutedStyle.Render(fmt.Sprintf("Showing %d of %d posts", data.Stats.Shown, data.Stats.Total)))
	sb.WriteString("\n")
	return sb.String()
}
