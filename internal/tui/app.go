// Package tui provides the interactive savings dashboard.
package tui

import (
	"fmt"
	"strings"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/model"
	"github.com/ecotracehq/ecotrace/internal/pipeline"
	"github.com/ecotracehq/ecotrace/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const recentReceipts = 10

// dataLoadedMsg is sent when the store queries finish.
type dataLoadedMsg struct {
	summary  model.Summary
	series   []model.DayStats
	receipts []model.Receipt
	err      error
}

// App is the root Bubble Tea model for the dashboard.
type App struct {
	store   *store.Store
	account string
	days    int

	loaded   bool
	loadErr  error
	summary  model.Summary
	series   []model.DayStats
	receipts []model.Receipt

	spinner spinner.Model
	width   int
	height  int
}

// NewApp returns a dashboard over the given store and account.
func NewApp(st *store.Store, account string, days int) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	if days <= 0 {
		days = pipeline.DefaultWindowDays
	}

	return App{
		store:   st,
		account: account,
		days:    days,
		spinner: sp,
	}
}

// Init starts the spinner and the initial data load.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadData())
}

func (a App) loadData() tea.Cmd {
	st, account, days := a.store, a.account, a.days
	return func() tea.Msg {
		agg := pipeline.Aggregator{Store: st}

		summary, err := agg.Summary(account)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		series, err := agg.Timeseries(account, days)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		receipts, err := st.ListByAccount(account, recentReceipts)
		if err != nil {
			return dataLoadedMsg{err: err}
		}

		return dataLoadedMsg{summary: summary, series: series, receipts: receipts}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			a.loaded = false
			a.loadErr = nil
			return a, tea.Batch(a.spinner.Tick, a.loadData())
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case dataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.err
		if msg.err == nil {
			a.summary = msg.summary
			a.series = msg.series
			a.receipts = msg.receipts
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cli.ColorBorder).
			Padding(0, 2).
			Align(lipgloss.Center)

	cardLabelStyle = lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText)
	footerStyle    = lipgloss.NewStyle().Foreground(cli.ColorTextDim)
	errStyle       = lipgloss.NewStyle().Foreground(cli.ColorRed)
)

// View renders the dashboard.
func (a App) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle(fmt.Sprintf("ECOTRACE  %s  Last %dd", a.account, a.days)))
	b.WriteString("\n\n")

	switch {
	case !a.loaded:
		b.WriteString(fmt.Sprintf("  %s Loading receipts...\n", a.spinner.View()))

	case a.loadErr != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("  Could not load data: %v", a.loadErr)))
		b.WriteString("\n")

	default:
		b.WriteString(a.renderCards())
		b.WriteString("\n")
		b.WriteString(a.renderSeries())
		b.WriteString("\n")
		b.WriteString(a.renderReceipts())
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("  q quit · r refresh"))
	b.WriteString("\n")
	return b.String()
}

func (a App) renderCards() string {
	card := func(label, value string) string {
		return cardStyle.Render(
			cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value),
		)
	}

	return "  " + lipgloss.JoinHorizontal(lipgloss.Top,
		card("Receipts", cli.FormatNumber(int64(a.summary.Events))),
		card("Tokens saved", cli.FormatTokens(a.summary.TokensSaved)),
		card("CO₂ saved", cli.FormatCO2(a.summary.CO2GSaved)),
		card("Avg quality", fmt.Sprintf("%.2f", a.summary.AvgQuality)),
	)
}

func (a App) renderSeries() string {
	if len(a.series) == 0 {
		return footerStyle.Render("  No activity in the window.") + "\n"
	}

	values := make([]float64, len(a.series))
	for i, ds := range a.series {
		values[i] = ds.CO2GSaved
	}

	var b strings.Builder
	b.WriteString(cardLabelStyle.Render("  Daily CO₂ saved"))
	b.WriteString("\n  ")
	b.WriteString(lipgloss.NewStyle().Foreground(cli.ColorGreen).Render(cli.RenderSparkline(values)))
	b.WriteString("\n")
	return b.String()
}

func (a App) renderReceipts() string {
	if len(a.receipts) == 0 {
		return ""
	}

	rows := make([][]string, 0, len(a.receipts))
	for _, r := range a.receipts {
		rows = append(rows, []string{
			cli.TruncateID(r.ReceiptID, 24),
			r.Timestamp.Format("01-02 15:04"),
			cli.FormatTokens(r.TokensSaved()),
			cli.FormatCO2(r.CO2GSaved()),
			cli.FormatQuality(r.QualityScore),
		})
	}

	return cli.RenderTable(cli.Table{
		Title:   "Recent receipts",
		Headers: []string{"Receipt", "When", "Tokens", "CO₂", "Quality"},
		Rows:    rows,
	})
}

// Run starts the dashboard program.
func Run(st *store.Store, account string, days int) error {
	_, err := tea.NewProgram(NewApp(st, account, days), tea.WithAltScreen()).Run()
	return err
}
