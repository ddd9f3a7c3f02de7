package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/tctsim/internal/sweep"
)

const barWidth = 40

// PointMsg reports a finished grid point.
type PointMsg sweep.Point

// DoneMsg ends the sweep.
type DoneMsg struct{ Err error }

type tickMsg time.Time

type workerStats struct {
	points    int
	crossings int
}

// Progress is a Bubble Tea model following a running sweep.
type Progress struct {
	title     string
	total     int
	done      int
	crossings int
	workers   []workerStats
	focus     int
	last      *sweep.Point
	frame     int
	started   time.Time
	finished  bool
	cancelled bool
	err       error
	cancel    context.CancelFunc
}

// NewProgress expects total grid points spread over workers.
func NewProgress(title string, total, workers int, cancel context.CancelFunc) Progress {
	return Progress{
		title:   title,
		total:   total,
		workers: make([]workerStats, max(workers, 1)),
		started: time.Now(),
		cancel:  cancel,
	}
}

func (m Progress) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % len(m.workers)
		}
	case PointMsg:
		p := sweep.Point(msg)
		m.done++
		m.crossings += p.Crossings
		if p.Worker >= 0 && p.Worker < len(m.workers) {
			m.workers[p.Worker].points++
			m.workers[p.Worker].crossings += p.Crossings
		}
		m.last = &p
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Progress) Done() int { return m.done }

func (m Progress) Cancelled() bool { return m.cancelled }

func (m Progress) Err() error { return m.err }

func (m Progress) fraction() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m Progress) View() string {
	var s strings.Builder

	status := StatusRunning.Render(Spinner(m.frame) + " RUNNING")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("FAILED: " + m.err.Error())
	case m.cancelled:
		status = StatusFailed.Render("CANCELLED")
	case m.finished:
		status = StatusRunning.Render("DONE")
	}
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "  " + status + "\n\n")

	s.WriteString(ProgressBar(m.fraction(), barWidth))
	s.WriteString(fmt.Sprintf(" %d/%d\n\n", m.done, m.total))

	s.WriteString(MetricLabel.Render("Crossings") + MetricValue.Render(fmt.Sprint(m.crossings)) + "\n")
	s.WriteString(MetricLabel.Render("Elapsed") + MetricValue.Render(time.Since(m.started).Round(time.Second).String()) + "\n")

	w := m.workers[m.focus]
	s.WriteString(MetricLabel.Render(fmt.Sprintf("Worker %d", m.focus)) +
		MetricValue.Render(fmt.Sprintf("%d points, %d crossings", w.points, w.crossings)) + "\n")

	stats := Panel.Render(s.String())
	if m.last == nil {
		return stats + "\n" + KeyHint.Render("q: cancel  tab: worker")
	}

	caption := fmt.Sprintf("%g V  y=%g  z=%g", m.last.Voltage, m.last.Lateral, m.last.Depth)
	graph := Graph.Render(Waveform(m.last.Wave, 8, 50, caption))
	return lipgloss.JoinHorizontal(lipgloss.Top, stats, graph) + "\n" +
		KeyHint.Render("q: cancel  tab: worker")
}

// RunFunc runs a sweep reporting each finished point to observe.
type RunFunc func(ctx context.Context, observe sweep.Observer) (*sweep.ResultTable, error)

// RunProgress runs fn behind a Progress view. opts are passed to the Bubble
// Tea program. Quitting the view cancels the sweep.
func RunProgress(ctx context.Context, title string, total, workers int, fn RunFunc, opts ...tea.ProgramOption) (*sweep.ResultTable, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append(opts, tea.WithContext(ctx))
	p := tea.NewProgram(NewProgress(title, total, workers, cancel), opts...)

	type result struct {
		table *sweep.ResultTable
		err   error
	}
	done := make(chan result, 1)
	go func() {
		table, err := fn(ctx, func(pt sweep.Point) { p.Send(PointMsg(pt)) })
		p.Send(DoneMsg{Err: err})
		done <- result{table, err}
	}()

	final, uiErr := p.Run()
	cancel()
	res := <-done

	if m, ok := final.(Progress); ok && m.Cancelled() {
		return nil, context.Canceled
	}
	if res.err != nil {
		if uiErr != nil {
			return nil, fmt.Errorf("progress view: %w", uiErr)
		}
		return nil, res.err
	}
	return res.table, nil
}
