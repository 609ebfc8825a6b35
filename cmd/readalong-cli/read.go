package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/pace"
	"github.com/vrsandeep/readalong/internal/pages"
)

func newReadCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "read <group>",
		Short: "Read a group's book page by page at your pace",
		Long: `Read a group's book page by page. Keys:
  →, n, l   go to the next page
  ←, p, h   go back one page
  g         jump to a page you have already reached
  1-5       choose your reading pace in minutes per page
  ↑/↓       scroll the page
  s         refresh the status line
  q         save and leave`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, err := groupArg(args[0])
			if err != nil {
				return err
			}
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			defer client.Logout(context.Background())

			unlocks := make(chan pace.Snapshot, 1)
			sess, err := pace.Open(ctx, client, groupID, pace.WithOnUnlock(forwardUnlock(unlocks)))
			if err != nil {
				return err
			}
			m := newReaderModel(ctx, sess, func(ctx context.Context, n int) (*pages.Page, error) {
				return client.Page(ctx, groupID, n)
			}, unlocks)

			final, err := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			if err != nil {
				sess.Stop()
				return err
			}
			if rm, ok := final.(readerModel); ok && rm.err != nil {
				return rm.err
			}
			if !sess.Closed() {
				return sess.Close(ctx)
			}
			return nil
		},
	}
}

// forwardUnlock hands unlock notices from the session timer to the program.
// A notice that is still waiting is enough; later ones are dropped.
func forwardUnlock(ch chan<- pace.Snapshot) func(pace.Snapshot) {
	return func(snap pace.Snapshot) {
		select {
		case ch <- snap:
		default:
		}
	}
}

type readerKeys struct {
	Next key.Binding
	Prev key.Binding
	Jump key.Binding
	Pace key.Binding
	Info key.Binding
	Quit key.Binding
}

func defaultReaderKeys() readerKeys {
	return readerKeys{
		Next: key.NewBinding(key.WithKeys("right", "n", "l"), key.WithHelp("→", "next")),
		Prev: key.NewBinding(key.WithKeys("left", "p", "h"), key.WithHelp("←", "prev")),
		Jump: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to")),
		Pace: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "pace")),
		Info: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k readerKeys) hints() string {
	var parts []string
	for _, b := range []key.Binding{k.Next, k.Prev, k.Jump, k.Pace, k.Info, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

type pageLoadedMsg struct {
	number int
	page   *pages.Page
	err    error
}

type movedMsg struct {
	snap pace.Snapshot
	pace int
	err  error
}

type unlockedMsg struct{ snap pace.Snapshot }

type closedMsg struct{ err error }

// readerModel is the terminal reader around a pacing session.
type readerModel struct {
	ctx     context.Context
	session *pace.Session
	page    func(ctx context.Context, n int) (*pages.Page, error)
	unlocks <-chan pace.Snapshot
	keys    readerKeys

	viewport  viewport.Model
	jumpInput textinput.Model
	jumping   bool
	closing   bool

	snap   pace.Snapshot
	shown  int
	notice string
	failed bool
	width  int
	height int

	err error
}

func newReaderModel(ctx context.Context, sess *pace.Session, page func(context.Context, int) (*pages.Page, error), unlocks <-chan pace.Snapshot) readerModel {
	ti := textinput.New()
	ti.Placeholder = "page"
	ti.CharLimit = 6
	ti.Prompt = "go to page: "
	ti.Cursor.SetMode(cursor.CursorStatic)

	return readerModel{
		ctx:       ctx,
		session:   sess,
		page:      page,
		unlocks:   unlocks,
		keys:      defaultReaderKeys(),
		viewport:  viewport.New(0, 0),
		jumpInput: ti,
		snap:      sess.Snapshot(),
	}
}

func (m readerModel) Init() tea.Cmd {
	return tea.Batch(m.loadPage(m.snap.CurrentPage), m.waitForUnlock())
}

func (m readerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		return m, nil

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.closing {
				return m, nil
			}
			m.closing = true
			return m, m.close()
		case key.Matches(msg, m.keys.Next):
			return m, m.move(0, m.session.Next)
		case key.Matches(msg, m.keys.Prev):
			return m, m.move(0, m.session.Prev)
		case key.Matches(msg, m.keys.Pace):
			n, _ := strconv.Atoi(msg.String())
			return m, m.move(n, func(ctx context.Context) (pace.Snapshot, error) {
				return m.session.SetPace(ctx, n)
			})
		case key.Matches(msg, m.keys.Jump):
			m.jumping = true
			m.jumpInput.SetValue("")
			return m, m.jumpInput.Focus()
		case key.Matches(msg, m.keys.Info):
			m.snap = m.session.Snapshot()
			m.notice, m.failed = "", false
			return m, nil
		}

	case movedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.snap = msg.snap
		m.notice, m.failed = "", false
		if msg.pace > 0 {
			m.notice = fmt.Sprintf("Pace set to %d min/page", msg.pace)
		}
		if m.snap.CurrentPage != m.shown {
			return m, m.loadPage(m.snap.CurrentPage)
		}
		return m, nil

	case pageLoadedMsg:
		m.shown = msg.number
		if msg.err != nil {
			m.viewport.SetContent(hotStyle.Render(fmt.Sprintf("Could not load page %d: %s", msg.number, apperrors.Reason(msg.err))))
			return m, nil
		}
		m.viewport.SetContent(strings.TrimRight(msg.page.Text, "\n"))
		m.viewport.GotoTop()
		return m, nil

	case unlockedMsg:
		m.snap = m.session.Snapshot()
		m.notice, m.failed = fmt.Sprintf("Page %d is unlocked", msg.snap.MaxPageReached+1), false
		return m, m.waitForUnlock()

	case closedMsg:
		if errors.Is(msg.err, pace.ErrNavigationInProgress) {
			m.closing = false
			return m.fail(msg.err)
		}
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m readerModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.jumping = false
		m.jumpInput.Blur()
		return m, nil
	case "enter":
		m.jumping = false
		m.jumpInput.Blur()
		value := strings.TrimSpace(m.jumpInput.Value())
		n, err := strconv.Atoi(value)
		if err != nil {
			return m.fail(apperrors.Validation("%q is not a page number", value))
		}
		return m, m.move(0, func(ctx context.Context) (pace.Snapshot, error) {
			return m.session.GoTo(ctx, n)
		})
	}
	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

// fail shows err on the status line. A rejected login ends the program,
// since every later sync would fail the same way.
func (m readerModel) fail(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		m.session.Stop()
		m.err = err
		return m, tea.Quit
	}
	m.failed = true
	if errors.Is(err, pace.ErrDwellPending) {
		m.snap = m.session.Snapshot()
		m.notice = fmt.Sprintf("Keep reading, page %d unlocks in %s", m.snap.MaxPageReached+1, time.Duration(m.snap.RemainingSeconds)*time.Second)
		return m, nil
	}
	// Sync failures leave the session as it was, so the member may retry.
	m.notice = apperrors.Reason(err)
	return m, nil
}

func (m readerModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("Page %d of %d", m.snap.CurrentPage, m.snap.TotalPages))
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", mutedStyle.Render(m.keys.hints()))

	footer := m.statusLine()
	switch {
	case m.jumping:
		footer = m.jumpInput.View()
	case m.notice != "" && m.failed:
		footer = lipgloss.JoinVertical(lipgloss.Left, hotStyle.Render(m.notice), footer)
	case m.notice != "":
		footer = lipgloss.JoinVertical(lipgloss.Left, okStyle.Render(m.notice), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.viewport.View(), footer)
}

func (m readerModel) statusLine() string {
	s := m.snap
	line := fmt.Sprintf("page %d/%d, furthest %d (%d%%)", s.CurrentPage, s.TotalPages, s.MaxPageReached, s.ProgressPercent)
	switch s.State {
	case pace.Unset:
		return mutedStyle.Render(line) + "  " + hotStyle.Render("choose a pace with 1-5")
	case pace.Locked:
		return mutedStyle.Render(line + fmt.Sprintf(", next page in %s", time.Duration(s.RemainingSeconds)*time.Second))
	case pace.Unlocked:
		if s.MaxPageReached < s.TotalPages {
			return mutedStyle.Render(line) + "  " + okStyle.Render("next page unlocked")
		}
	}
	return mutedStyle.Render(line)
}

func (m readerModel) move(paced int, op func(context.Context) (pace.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := op(m.ctx)
		return movedMsg{snap: snap, pace: paced, err: err}
	}
}

func (m readerModel) loadPage(n int) tea.Cmd {
	return func() tea.Msg {
		p, err := m.page(m.ctx, n)
		return pageLoadedMsg{number: n, page: p, err: err}
	}
}

func (m readerModel) close() tea.Cmd {
	return func() tea.Msg {
		return closedMsg{err: m.session.Close(m.ctx)}
	}
}

// waitForUnlock turns the next timer notice into a message. Without a
// channel there is nothing to wait on.
func (m readerModel) waitForUnlock() tea.Cmd {
	if m.unlocks == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case snap := <-m.unlocks:
			return unlockedMsg{snap: snap}
		case <-m.ctx.Done():
			return nil
		}
	}
}
