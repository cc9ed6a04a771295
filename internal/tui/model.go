// Package tui provides the Bubble Tea puzzle board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/client"
	"github.com/robalobadob/connections/internal/game"
)

// Opener produces the session once the puzzle is available. It is called
// from a command goroutine; ctx is cancelled when the user quits first.
type Opener func(ctx context.Context) (*game.Session, error)

// Options tune the board.
type Options struct {
	Code    string
	Shuffle bool // shuffle the board on load
	Log     zerolog.Logger
}

type loadedMsg struct {
	sess *game.Session
	err  error
}

// Model implements the Bubble Tea board UI.
type Model struct {
	open   Opener
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	spinner spinner.Model
	loading bool
	loadErr error

	sess   *game.Session
	order  []string // unsolved words in display order
	cursor int
	notice string

	width  int
	height int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C8C8C8")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Underline(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	// Indexed by difficulty, clamped.
	difficultyColors = []lipgloss.Color{"#F9DF6D", "#A0C35A", "#B0C4EF", "#BA81C5"}
)

// NewModel constructs a board that loads its session through open.
func NewModel(open Opener, opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return &Model{
		open:    open,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		spinner: sp,
		loading: true,
	}
}

// Session returns the live session, nil while loading or after a failure.
func (m *Model) Session() *game.Session { return m.sess }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m *Model) load() tea.Msg {
	s, err := m.open(m.ctx)
	return loadedMsg{sess: s, err: err}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) {
				m.opts.Log.Error().Err(msg.err).Msg("open session")
			}
			m.loadErr = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.order = m.sess.Remaining()
		if m.opts.Shuffle {
			m.shuffle()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.cancel()
		return m, tea.Quit
	}
	if m.sess == nil {
		return m, nil
	}
	m.notice = ""
	switch msg.String() {
	case "left", "h":
		m.move(-1)
	case "right", "l":
		m.move(1)
	case "up", "k":
		m.move(-m.columns())
	case "down", "j":
		m.move(m.columns())
	case " ", "space":
		m.toggle()
	case "enter":
		m.enter()
	case "c":
		m.report(m.sess.Clear())
	case "s":
		m.shuffle()
	case "g":
		m.report(m.sess.GiveUp())
	}
	return m, nil
}

func (m *Model) move(delta int) {
	n := len(m.order)
	if n == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return
	}
	m.cursor = next
}

func (m *Model) toggle() {
	if m.cursor >= len(m.order) {
		return
	}
	word := m.order[m.cursor]
	selected, err := m.sess.Toggle(word)
	if err != nil {
		m.report(err)
		return
	}
	if !selected && !m.sess.Selected(word) && len(m.sess.Selection()) == m.sess.Puzzle().CategorySize {
		m.notice = "Selection is full"
	}
}

func (m *Model) enter() {
	if m.sess.Status() == game.StatusNotStarted {
		m.report(m.sess.Start())
		return
	}
	ev, err := m.sess.Submit()
	if err != nil {
		m.report(err)
		return
	}
	switch {
	case m.sess.Status().Terminal():
		// The status line carries the outcome.
		m.notice = ""
	case ev.Correct:
		m.notice = fmt.Sprintf("Found %s", ev.Category.Name)
		m.refreshOrder()
	case ev.OneAway:
		m.notice = "One away..."
	default:
		m.notice = "Not a group"
	}
}

// refreshOrder drops solved words while keeping the display order.
func (m *Model) refreshOrder() {
	left := make(map[string]struct{}, len(m.order))
	for _, w := range m.sess.Remaining() {
		left[w] = struct{}{}
	}
	kept := m.order[:0]
	for _, w := range m.order {
		if _, ok := left[w]; ok {
			kept = append(kept, w)
		}
	}
	m.order = kept
	if m.cursor >= len(m.order) {
		m.cursor = max(len(m.order)-1, 0)
	}
}

func (m *Model) shuffle() {
	rand.Shuffle(len(m.order), func(i, j int) { m.order[i], m.order[j] = m.order[j], m.order[i] })
}

func (m *Model) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, game.ErrRepeatedGuess):
		m.notice = "Already guessed"
	case errors.Is(err, game.ErrIncompleteGuess):
		m.notice = fmt.Sprintf("Select %d words", m.sess.Puzzle().CategorySize)
	case errors.Is(err, game.ErrNotInProgress):
		if m.sess.Status() == game.StatusNotStarted {
			m.notice = "Press enter to start"
		} else {
			m.notice = "Game over"
		}
	case game.IsUserError(err):
		m.notice = err.Error()
	default:
		m.opts.Log.Error().Err(err).Msg("session")
		m.notice = "Something went wrong"
	}
}

func (m *Model) columns() int {
	if m.sess == nil {
		return 1
	}
	return max(m.sess.Puzzle().CategorySize, 1)
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch {
	case m.loading:
		body = fmt.Sprintf("%s Loading game %s...", m.spinner.View(), m.opts.Code)
	case m.loadErr != nil:
		body = errorStyle.Render(loadErrorText(m.loadErr)) + "\n\n" + footerStyle.Render("q quit")
	default:
		body = m.renderBoard()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func loadErrorText(err error) string {
	var le *client.LoadError
	if errors.As(err, &le) {
		return fmt.Sprintf("Could not load game %s after %d attempt(s).\n%v", le.Code, le.Attempts, le.Err)
	}
	return fmt.Sprintf("Could not load game: %v", err)
}

func (m *Model) renderBoard() string {
	p := m.sess.Puzzle()
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = p.Code
	}
	b.WriteString(titleStyle.Render(title))
	if p.Author != "" {
		b.WriteString(footerStyle.Render("  by " + p.Author))
	}
	b.WriteString("\n\n")

	width := cellWidth(p.Words())
	rowWidth := m.columns()*(width+1) - 1
	for _, c := range m.sess.Solved() {
		b.WriteString(renderCategory(c.Name, c.Words, c.Difficulty, rowWidth))
		b.WriteString("\n")
	}
	if m.sess.Status().Terminal() {
		for _, c := range m.sess.Unsolved() {
			b.WriteString(renderCategory(c.Name, c.Words, c.Difficulty, rowWidth))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.renderGrid(width))
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render(m.renderHelp()))
	return b.String()
}

func (m *Model) renderGrid(width int) string {
	cols := m.columns()
	var b strings.Builder
	for i, w := range m.order {
		style := cellStyle
		if m.sess.Selected(w) {
			style = selectedStyle
		}
		if i == m.cursor {
			style = style.Inherit(cursorStyle)
		}
		b.WriteString(style.Render(padCell(w, width)))
		if (i+1)%cols == 0 || i == len(m.order)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func renderCategory(name string, ws []string, difficulty, row int) string {
	idx := min(max(difficulty-1, 0), len(difficultyColors)-1)
	width := bannerWidth(name, ws, row)
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(difficultyColors[idx]).
		Width(width).
		Align(lipgloss.Center)
	return style.Render(strings.ToUpper(name)+"\n"+strings.Join(ws, ", ")) + "\n"
}

func (m *Model) renderStatus() string {
	s := m.sess
	switch s.Status() {
	case game.StatusNotStarted:
		return "Press enter to start"
	case game.StatusWon:
		return fmt.Sprintf("Solved in %d guesses, %s", len(s.Guesses()), elapsed(s.Timestamps()))
	case game.StatusLost:
		if s.GaveUp() {
			return "You gave up"
		}
		return "Out of mistakes"
	}
	n, limited := s.MistakesRemaining()
	if !limited {
		return fmt.Sprintf("Mistakes: %d", s.Mistakes())
	}
	return fmt.Sprintf("Mistakes remaining: %s", strings.Repeat("● ", n)+strings.Repeat("○ ", s.Mistakes()))
}

func elapsed(ts []float64) string {
	if len(ts) == 0 {
		return "0s"
	}
	return fmt.Sprintf("%.0fs", ts[len(ts)-1])
}

func (m *Model) renderHelp() string {
	if m.sess.Status().Terminal() {
		return "q quit"
	}
	return "←↓↑→/hjkl move  space select  enter submit  c clear  s shuffle  g give up  q quit"
}
