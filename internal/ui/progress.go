package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/ui/styles"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	barWidth     = 30
)

type updateMsg struct {
	update *progress.Update
}

type doneMsg struct {
	err error
}

// RunModel renders a spinner and the latest progress update of a run
type RunModel struct {
	spinner    spinner.Model
	title      string
	last       *progress.Update
	startTime  time.Time
	width      int
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	err        error
}

// NewRunModel creates a model for a run. cancel is invoked on ctrl+c; the
// model keeps running until the run reports completion.
func NewRunModel(title string, cancel context.CancelFunc) RunModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return RunModel{
		spinner:   s,
		title:     title,
		startTime: time.Now(),
		width:     defaultWidth,
		cancel:    cancel,
	}
}

// Init starts the spinner
func (m RunModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case updateMsg:
		m.last = msg.update
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the run status
func (m RunModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.TitleStyle.Render(m.title))
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", progress.FormatDuration(time.Since(m.startTime)))))
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(progress.Format(m.last))
	b.WriteString("\n")

	if m.last != nil {
		if m.last.Total > 0 {
			b.WriteString("  ")
			b.WriteString(styles.ProgressBar(m.last.Done, m.last.Total, barWidth))
			b.WriteString("\n")
		}
		if m.last.Current != "" {
			b.WriteString("  ")
			b.WriteString(styles.FilePathStyle.Render(truncatePath(m.last.Current, m.width-4)))
			b.WriteString("\n")
		}
	}

	if m.cancelling {
		b.WriteString(styles.WarningStyle.Render("Cancelling, finishing current step..."))
	} else {
		b.WriteString(styles.DimStyle.Render("Press ctrl+c to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// Err returns the error the run finished with
func (m RunModel) Err() error {
	return m.err
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RunWithSpinner runs fn while rendering updates from pr on out. When out
// is not a terminal fn runs without any display. Cancelling from the
// keyboard cancels the context passed to fn.
func RunWithSpinner(ctx context.Context, out *os.File, title string, pr *progress.Reporter, fn func(ctx context.Context) error) error {
	if !IsTerminal(out) {
		return fn(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := pr.Subscribe()
	defer pr.Unsubscribe(updates)

	program := tea.NewProgram(NewRunModel(title, cancel), tea.WithOutput(out), tea.WithContext(ctx))

	go func() {
		for u := range updates {
			program.Send(updateMsg{update: u})
		}
	}()

	errc := make(chan error, 1)
	go func() {
		err := fn(runCtx)
		errc <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
	}
	return <-errc
}

func truncatePath(path string, maxLen int) string {
	if maxLen < 4 || len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}
