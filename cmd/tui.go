package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
	"github.com/AustinNewburry/DavisDefenseBot/internal/parser"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1F4E79")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2E86C1")).
			Padding(0, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	autocompleteStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#F25D94"))

	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5B041"))
)

type suggestion string

func (s suggestion) Title() string       { return string(s) }
func (s suggestion) Description() string { return "" }
func (s suggestion) FilterValue() string { return string(s) }

// feedMsg carries an event announcement or outcome into the running program.
type feedMsg string

// tickMsg refreshes the cooldown and deadline countdowns.
type tickMsg time.Time

// programPublisher forwards scheduler events into the TUI once it is running.
type programPublisher struct {
	program atomic.Pointer[tea.Program]
	dir     dispatch.Directory
}

func (p *programPublisher) send(text string) {
	if prog := p.program.Load(); prog != nil {
		prog.Send(feedMsg(text))
	}
}

func (p *programPublisher) Announce(_ context.Context, a event.Announcement) error {
	p.send(dispatch.RenderAnnouncement(a, time.Now()))
	return nil
}

func (p *programPublisher) Publish(_ context.Context, o event.Outcome) error {
	p.send(dispatch.RenderOutcome(o, p.dir.Name))
	return nil
}

type replModel struct {
	ctx         context.Context
	engine      *game.Engine
	disp        *dispatch.Dispatcher
	caller      dispatch.Caller
	textInput   textinput.Model
	viewport    viewport.Model
	suggestions list.Model
	history     []string
	historyIdx  int
	logContent  string
	width       int
	height      int
	showList    bool
}

func newREPLModel(ctx context.Context, engine *game.Engine, disp *dispatch.Dispatcher, caller dispatch.Caller) replModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g. patrol, train strength, craft medkit)..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	welcome := fmt.Sprintf("Playing as %s. Type 'help' for commands, 'as <player>' to switch, 'exit' to quit.", caller.Name)
	vp := viewport.New(0, 0)
	vp.SetContent(welcome)

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	sugList := list.New([]list.Item{}, delegate, 50, 7)
	sugList.SetShowTitle(false)
	sugList.SetShowStatusBar(false)
	sugList.SetFilteringEnabled(false)
	sugList.SetShowHelp(false)

	return replModel{
		ctx:         ctx,
		engine:      engine,
		disp:        disp,
		caller:      caller,
		textInput:   ti,
		viewport:    vp,
		suggestions: sugList,
		historyIdx:  -1,
		logContent:  welcome,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// completions lists what may follow the text typed so far.
func (m *replModel) completions(val string) []string {
	lower := strings.ToLower(val)
	fields := strings.Fields(lower)

	var cands []string
	switch {
	case len(fields) <= 1 && !strings.HasSuffix(lower, " "):
		for kw := range parser.Usage {
			if !m.disp.IsOwner(m.caller.ID) && isAdminKeyword(kw) {
				continue
			}
			cands = append(cands, kw+" ")
		}
		cands = append(cands, "as ", "exit")
	case fields[0] == "craft":
		for _, r := range m.engine.Rules().Recipes {
			cands = append(cands, "craft "+strings.ToLower(r.Name))
		}
	case fields[0] == "use":
		for item := range m.engine.Ledger().Inventory(m.caller.ID).CraftedItems {
			cands = append(cands, "use "+strings.ToLower(item))
		}
	case fields[0] == "train":
		for _, sk := range []string{"strength", "agility", "intelligence", "endurance"} {
			cands = append(cands, "train "+sk)
		}
	case fields[0] == "force":
		cands = append(cands, "force attack", "force boss")
	}

	var out []string
	for _, c := range cands {
		if strings.HasPrefix(c, lower) && len(lower) < len(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func isAdminKeyword(kw string) bool {
	switch kw {
	case "sethonor", "addhonor", "setskill", "force", "games", "grant", "revoke":
		return true
	}
	return false
}

func (m *replModel) updateSuggestions() {
	var items []list.Item
	if val := m.textInput.Value(); val != "" {
		for _, c := range m.completions(val) {
			items = append(items, suggestion(c))
		}
	}

	m.suggestions.SetItems(items)
	m.showList = len(items) > 0
	if m.showList {
		h := min(len(items), 10)
		if h < 4 {
			h = 4
		}
		m.suggestions.SetHeight(h)
		m.suggestions.ResetSelected()
	}
}

func (m *replModel) appendLog(s string) {
	m.logContent += s
	m.viewport.SetContent(m.logContent)
	m.viewport.GotoBottom()
}

func (m *replModel) execute(val string) {
	m.logContent += fmt.Sprintf("\n\n%s> %s\n", m.caller.Name, val)

	if rest, ok := strings.CutPrefix(val, "as "); ok {
		id := strings.TrimPrefix(strings.TrimSpace(rest), "@")
		if id == "" {
			m.appendLog("usage: as <player>")
			return
		}
		m.caller = dispatch.Caller{ID: id, Name: id}
		m.appendLog("Now playing as " + id)
		return
	}

	reply, err := m.disp.Execute(m.ctx, m.caller, val)
	if err != nil {
		m.appendLog("Error: " + err.Error())
		return
	}
	m.appendLog(strings.Join(reply.Messages, "\n"))
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		lsCmd tea.Cmd
		tkCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tickMsg:
		tkCmd = tick()

	case feedMsg:
		m.appendLog("\n\n" + alertStyle.Render(string(msg)))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.history) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.history[m.historyIdx])
				m.updateSuggestions()
			}

		case tea.KeyDown:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else if len(m.history) > 0 && m.historyIdx != -1 {
				if m.historyIdx < len(m.history)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.history[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.updateSuggestions()
			}

		case tea.KeyTab:
			if m.showList {
				if i, ok := m.suggestions.SelectedItem().(suggestion); ok {
					m.textInput.SetValue(string(i))
					m.textInput.SetCursor(len(string(i)))
					m.updateSuggestions()
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}
			if val != "" {
				if len(m.history) == 0 || m.history[len(m.history)-1] != val {
					m.history = append(m.history, val)
				}
				m.historyIdx = -1
				m.textInput.SetValue("")
				m.updateSuggestions()
				m.execute(val)
			}

		default:
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.suggestions.SetWidth(msg.Width - 6)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	listAreaHeight := 0
	if m.showList {
		listAreaHeight = m.suggestions.Height() + 2
	}
	overhead := lipgloss.Height(titleStyle.Render("x")) +
		lipgloss.Height(m.renderState()) +
		1 + listAreaHeight +
		lipgloss.Height(infoStyle.Render("x")) + 6
	m.viewport.Height = max(m.height-overhead, 4)

	return m, tea.Batch(tiCmd, vpCmd, lsCmd, tkCmd)
}

func (m *replModel) renderState() string {
	var b strings.Builder

	v := m.engine.Stats(m.ctx, m.caller.ID)
	fmt.Fprintf(&b, "%s  %s  %d honor", m.caller.Name, v.Rank, v.Honor)
	if v.NextRank != "" {
		fmt.Fprintf(&b, "  (%d to %s)", v.NextHonor-v.Honor, v.NextRank)
	}
	b.WriteString("\n")

	if len(v.Cooldowns) > 0 {
		actions := make([]string, 0, len(v.Cooldowns))
		for a := range v.Cooldowns {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		parts := make([]string, 0, len(actions))
		for _, a := range actions {
			parts = append(parts, fmt.Sprintf("%s %s", a, v.Cooldowns[a].Round(time.Second)))
		}
		b.WriteString("Cooling down: " + strings.Join(parts, ", ") + "\n")
	} else {
		b.WriteString("All actions ready.\n")
	}

	active := false
	for _, s := range m.engine.EventStatus() {
		if s.State == event.Idle {
			continue
		}
		active = true
		left := time.Until(s.Deadline).Round(time.Second)
		if s.Class == event.ClassWorldBoss {
			fmt.Fprintf(&b, "World boss: %d/%d HP, %d fighters, %s left\n", s.Remaining, s.Capacity, s.Participants, left)
		} else {
			fmt.Fprintf(&b, "Attack: %d defenders, %s left\n", s.Participants, left)
		}
	}
	if !active {
		if m.engine.FeaturesEnabled() {
			b.WriteString("No active events.")
		} else {
			b.WriteString("No active events (scheduled events are off).")
		}
	}

	return stateBoxStyle.Width(m.width - 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *replModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(" Davis Defense ")
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	inputArea := m.textInput.View()
	if m.showList {
		inputArea = fmt.Sprintf("%s\n%s", inputArea, autocompleteStyle.Render(m.suggestions.View()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderState(),
		logBox,
		"",
		inputArea,
		infoStyle.Render("(esc to quit, tab to complete, up/down history)"),
	)
}

// RunTUI runs the console until the user quits.
func RunTUI(ctx context.Context, engine *game.Engine, disp *dispatch.Dispatcher, caller dispatch.Caller, pub *programPublisher) error {
	m := newREPLModel(ctx, engine, disp, caller)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	pub.program.Store(p)
	defer pub.program.Store(nil)
	_, err := p.Run()
	return err
}
