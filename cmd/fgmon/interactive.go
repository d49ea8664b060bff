package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const frameInterval = 200 * time.Millisecond

type monitorModel struct {
	sim       *simulator
	objects   table.Model
	stats     frameStats
	maxFrames int
	paused    bool
	done      bool
	err       error
}

type frameMsg struct {
	stats frameStats
	err   error
}

type tickMsg struct{}

func newMonitorModel(sim *simulator, maxFrames int) *monitorModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Type", Width: 16},
			{Title: "Acquired", Width: 9},
			{Title: "Constant", Width: 9},
			{Title: "Timeout", Width: 8},
			{Title: "Reserved", Width: 9},
		}),
		table.WithHeight(12),
	)
	return &monitorModel{sim: sim, objects: t, maxFrames: maxFrames}
}

func runInteractive(sim *simulator, maxFrames int) error {
	p := tea.NewProgram(newMonitorModel(sim, maxFrames), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *monitorModel) Init() tea.Cmd {
	return tick()
}

func (m *monitorModel) stepFrame() tea.Msg {
	stats, err := m.sim.runFrame()
	return frameMsg{stats: stats, err: err}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused

		case "f":
			// force an extra flush; idempotent within the same boundary
			if err := m.sim.pool().FlushMap(); err != nil {
				m.err = err
			}
			m.refreshObjects()
		}

	case tickMsg:
		if m.paused || m.done {
			return m, tick()
		}
		return m, m.stepFrame

	case frameMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.stats = msg.stats
		m.refreshObjects()
		if m.maxFrames > 0 && m.stats.frame >= m.maxFrames {
			m.done = true
		}
		return m, tick()
	}

	var cmd tea.Cmd
	m.objects, cmd = m.objects.Update(msg)
	return m, cmd
}

func (m *monitorModel) refreshObjects() {
	var rows []table.Row
	for _, obj := range m.sim.pool().Objects() {
		rows = append(rows, table.Row{
			strconv.FormatInt(obj.ID(), 10),
			fmt.Sprintf("%T", obj.Value()),
			boolMark(obj.IsAcquired()),
			boolMark(obj.IsConstant()),
			strconv.Itoa(obj.Timeout()),
			strconv.Itoa(obj.ReservationCount()),
		})
	}
	m.objects.SetRows(rows)
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func (m *monitorModel) View() string {
	s := titleStyle.Render("framegraph monitor") + "\n\n"

	if m.err != nil {
		s += errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	st := m.stats
	s += statStyle.Render(fmt.Sprintf(
		"frame %d   declared %d   culled %d   allocations %d   created %d   reallocated %d   flushed %d   pooled %d",
		st.frame, st.declared, st.culled, st.allocations, st.created, st.reallocated, st.flushed, st.poolSize,
	)) + "\n\n"

	s += m.objects.View() + "\n\n"

	status := "running"
	if m.paused {
		status = pausedStyle.Render("paused")
	}
	if m.done {
		status = "done"
	}
	s += helpStyle.Render("space pause/resume  f force flush  q quit  ["+status+"]") + "\n"
	return s
}
