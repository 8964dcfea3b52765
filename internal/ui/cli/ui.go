package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"msindex/internal/core/ports"
	"msindex/internal/engine/msi"
	"msindex/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	supportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// pairItem is one scored pair in the results list.
type pairItem struct {
	score  msi.Score
	relief msi.Relief
}

func (i pairItem) Title() string {
	return fmt.Sprintf("%s with %s", i.score.Pair.Acceptor, i.score.Pair.Donor)
}

func (i pairItem) Description() string {
	return fmt.Sprintf("MSI %s | stuck %d -> %d | %d relieved",
		output.FormatFloat(i.score.MSI), i.score.StuckBefore, i.score.StuckAfter, len(i.relief.Reactions))
}

func (i pairItem) FilterValue() string { return i.score.Pair.Key() }

type model struct {
	pairs      list.Model
	items      []pairItem
	showDetail bool
	seed       string
	runID      string
	trigger    []string
	err        error
	lastUpdate time.Time
}

type updateMsg struct {
	update ports.WatchUpdate
}

func initialModel() model {
	pairs := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	pairs.Title = "Pairs by MSI"
	pairs.SetShowStatusBar(false)
	pairs.SetFilteringEnabled(true)

	return model{
		pairs:      pairs,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 10
		if height < 5 {
			height = 5
		}
		m.pairs.SetSize(msg.Width-h, height)
	case updateMsg:
		m = m.apply(msg.update)
	}

	var cmd tea.Cmd
	m.pairs, cmd = m.pairs.Update(msg)
	return m, cmd
}

// apply replaces the listed pairs with the ones of a watch update. A failed
// recomputation keeps the previous results on screen.
func (m model) apply(u ports.WatchUpdate) model {
	m.lastUpdate = u.At
	m.trigger = u.Trigger
	m.err = u.Err
	if u.Err != nil {
		return m
	}
	m.seed = u.Result.Seed
	m.runID = u.Result.RunID

	reliefs := make(map[msi.Pair]msi.Relief, len(u.Result.Reliefs))
	for _, r := range u.Result.Reliefs {
		reliefs[r.Pair] = r
	}
	m.items = make([]pairItem, 0, len(u.Result.Scores))
	for _, s := range u.Result.Scores {
		m.items = append(m.items, pairItem{score: s, relief: reliefs[s.Pair]})
	}
	sort.SliceStable(m.items, func(i, j int) bool {
		if m.items[i].score.MSI != m.items[j].score.MSI {
			return m.items[i].score.MSI > m.items[j].score.MSI
		}
		return m.items[i].score.Pair.Key() < m.items[j].score.Pair.Key()
	})

	listItems := make([]list.Item, len(m.items))
	for i, it := range m.items {
		listItems[i] = it
	}
	m.pairs.SetItems(listItems)
	return m
}

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.pairs.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.pairs, cmd = m.pairs.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		m.showDetail = !m.showDetail
		return m, nil
	case "esc":
		if m.showDetail {
			m.showDetail = false
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.pairs, cmd = m.pairs.Update(msg)
	return m, cmd
}

func (m model) selected() (pairItem, bool) {
	it, ok := m.pairs.SelectedItem().(pairItem)
	return it, ok
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | seed %s | %d pairs",
		m.lastUpdate.Format("15:04:05"), orDash(m.seed), len(m.items)))

	var summary string
	if m.err != nil {
		summary = errorStyle.Render("Recomputation failed: " + m.err.Error())
	} else {
		supported := 0
		for _, it := range m.items {
			if it.score.MSI > 0 {
				supported++
			}
		}
		summary = supportStyle.Render(fmt.Sprintf("%d pairs with support", supported))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Metabolic Support Index"), status, summary)
	help := statusStyle.Render("Keys: / filter | enter relieved reactions | esc back | q quit")

	body := m.pairs.View()
	if m.showDetail {
		body += "\n\n" + renderDetail(m)
	}
	if m.runID != "" {
		body += "\n\n" + statusStyle.Render("Recorded as run "+m.runID)
	}
	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func renderDetail(m model) string {
	it, ok := m.selected()
	if !ok {
		return statusStyle.Render("No pair selected.")
	}
	lines := []string{
		fmt.Sprintf("Relieved in %s by %s (MSI %s)",
			it.score.Pair.Acceptor, it.score.Pair.Donor, output.FormatFloat(it.score.MSI)),
	}
	if len(it.relief.Reactions) == 0 {
		lines = append(lines, "   none")
	}
	for _, r := range it.relief.Reactions {
		lines = append(lines, fmt.Sprintf("   %s  %s  [%s]", r.ID, r.Equation, r.Name))
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// runUI shows watch updates until the user quits. The watcher starts once
// the program runs so its first update is not sent to a program that is not
// reading yet.
func runUI(ctx context.Context, svc ports.WatchService) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())

	svc.Subscribe(func(u ports.WatchUpdate) {
		p.Send(updateMsg{update: u})
	})
	go func() {
		if err := svc.Start(ctx); err != nil {
			p.Send(updateMsg{update: ports.WatchUpdate{At: time.Now(), Err: err}})
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
