package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pondok-digital/portal/internal/events"
)

var levelColors = map[events.Level]lipgloss.Color{
	events.LevelInfo:    lipgloss.Color("39"),
	events.LevelSuccess: lipgloss.Color("42"),
	events.LevelWarning: lipgloss.Color("214"),
	events.LevelError:   lipgloss.Color("196"),
}

// toaster prints notifications as bordered boxes
type toaster struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer
}

func newToaster(out io.Writer) *toaster {
	return &toaster{out: out, renderer: lipgloss.NewRenderer(out)}
}

func (t *toaster) print(n events.Notification) {
	color, ok := levelColors[n.Level]
	if !ok {
		color = levelColors[events.LevelInfo]
	}

	title := t.renderer.NewStyle().Bold(true).Foreground(color).Render(n.Title)
	box := t.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	body := title
	if n.Message != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, title, n.Message)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, box.Render(body))
}

func (a *app) success(message string) {
	a.toasts.print(events.Notification{Level: events.LevelSuccess, Title: message})
}

// printTable writes rows under headers with a normal border
func printTable(out io.Writer, headers []string, rows [][]string) {
	renderer := lipgloss.NewRenderer(out)
	headerStyle := renderer.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := renderer.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(renderer.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(out, t.String())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens s to max runes for table cells
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
