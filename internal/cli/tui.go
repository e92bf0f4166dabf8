package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/view"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorCyan).Padding(0, 1)
	tabInactiveStyle  = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
)

// viewCommand creates the interactive view command.
func (c *CLI) viewCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Pick places, compute routes and switch views interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// Log lines would tear the alternate screen.
			c.Logger.SetOutput(nopWriter{})

			ui := &teaUI{}
			raster := schematic.NewRaster(a.cfg.Canvas.Width, a.cfg.Canvas.Height)
			ctrl := a.controller(ui, raster)
			m := newViewModel(ctx, ctrl, raster, a.table.Names(), output)

			p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
			ui.attach(p)
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "pampasroute", "base path used when saving with 's'")
	return cmd
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// =============================================================================
// teaUI - view.UI over a bubbletea program
// =============================================================================

type (
	showViewMsg struct {
		mode  view.Mode
		title string
	}
	busyMsg struct {
		busy bool
		text string
	}
	resultMsg struct{ result *route.Result }
	noticeMsg struct {
		kind view.Notice
		text string
	}
	computedMsg struct{ err error }
	selectedMsg struct{ err error }
	overlayMsg  struct {
		markers, lines int
		hasRoute       bool
		err            error
	}
	savedMsg struct {
		paths []string
		err   error
	}
)

// teaUI forwards controller calls to the program as messages. It is called
// from controller and resolver goroutines, never from Update.
type teaUI struct {
	mu sync.Mutex
	p  *tea.Program
}

var _ view.UI = (*teaUI)(nil)

func (u *teaUI) attach(p *tea.Program) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.p = p
}

func (u *teaUI) send(msg tea.Msg) {
	u.mu.Lock()
	p := u.p
	u.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (u *teaUI) ShowView(m view.Mode, title string) { u.send(showViewMsg{m, title}) }
func (u *teaUI) SetBusy(busy bool, msg string)      { u.send(busyMsg{busy, msg}) }
func (u *teaUI) ShowResult(r *route.Result)         { u.send(resultMsg{r}) }
func (u *teaUI) Notify(n view.Notice, msg string)   { u.send(noticeMsg{n, msg}) }

// =============================================================================
// viewModel - place selection and view toggle
// =============================================================================

const (
	fieldStart = iota
	fieldDestination
)

// viewModel is the bubbletea model of the view command. Update never calls
// the controller directly: controller calls may block on UI messages, so
// they run as commands.
type viewModel struct {
	ctx    context.Context
	ctrl   *view.Controller
	raster *schematic.Raster
	output string

	names  []string
	cursor int
	offset int
	height int
	field  int
	picked [2]string

	mode   view.Mode
	title  string
	busy   string
	result *route.Result
	notice noticeMsg
	status string

	markers, lines int
	hasRoute       bool
}

func newViewModel(ctx context.Context, ctrl *view.Controller, raster *schematic.Raster, names []string, output string) viewModel {
	return viewModel{
		ctx:    ctx,
		ctrl:   ctrl,
		raster: raster,
		output: output,
		names:  names,
		height: 12,
		mode:   view.ModeSchematic,
		title:  view.Title(view.ModeSchematic),
	}
}

func (m viewModel) Init() tea.Cmd {
	return m.selectCmd(view.ModeSchematic)
}

func (m viewModel) selectCmd(mode view.Mode) tea.Cmd {
	return func() tea.Msg {
		return selectedMsg{err: m.ctrl.Select(m.ctx, mode)}
	}
}

func (m viewModel) computeCmd() tea.Cmd {
	start, dest := m.picked[fieldStart], m.picked[fieldDestination]
	return func() tea.Msg {
		_, err := m.ctrl.Compute(m.ctx, start, dest)
		return computedMsg{err: err}
	}
}

// overlayCmd waits for the pending street route and reports the map.
func (m viewModel) overlayCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.Wait(m.ctx); err != nil {
			return overlayMsg{err: err}
		}
		scene := m.ctrl.State().Scene
		if scene == nil {
			return overlayMsg{}
		}
		markers, lines, hasRoute := scene.Len()
		return overlayMsg{markers: markers, lines: lines, hasRoute: hasRoute}
	}
}

// saveCmd writes the schematic PNG and, once the map is open, its GeoJSON.
func (m viewModel) saveCmd() tea.Cmd {
	return func() tea.Msg {
		var paths []string
		png := m.output + ".png"
		err := m.ctrl.Export(func(schematic.Surface) error {
			f, err := os.Create(png)
			if err != nil {
				return err
			}
			defer f.Close()
			return m.raster.EncodePNG(f)
		})
		if err != nil {
			return savedMsg{err: err}
		}
		paths = append(paths, png)

		if scene := m.ctrl.State().Scene; scene != nil {
			if mm, ok := scene.Map().(*overlay.MemoryMap); ok {
				data, err := mm.MarshalJSON()
				if err != nil {
					return savedMsg{paths, err}
				}
				path := m.output + ".geojson"
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return savedMsg{paths, err}
				}
				paths = append(paths, path)
			}
		}
		return savedMsg{paths: paths}
	}
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-22, 5)

	case showViewMsg:
		m.mode, m.title = msg.mode, msg.title

	case busyMsg:
		m.busy = ""
		if msg.busy {
			m.busy = msg.text
		}

	case resultMsg:
		m.result = msg.result
		m.notice = noticeMsg{}

	case noticeMsg:
		m.notice = msg

	case computedMsg:
		if msg.err == nil && m.mode == view.ModeInteractive {
			return m, m.overlayCmd()
		}

	case selectedMsg:
		if msg.err == nil && m.mode == view.ModeInteractive {
			return m, m.overlayCmd()
		}

	case overlayMsg:
		if msg.err == nil {
			m.markers, m.lines, m.hasRoute = msg.markers, msg.lines, msg.hasRoute
		}

	case savedMsg:
		if msg.err != nil {
			m.status = styleIconError.Render(iconError) + " " + msg.err.Error()
		} else {
			m.status = styleIconSuccess.Render(iconSuccess) + " saved " + strings.Join(msg.paths, ", ")
		}
	}
	return m, nil
}

func (m viewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "tab":
		m.field = 1 - m.field
	case "enter":
		if len(m.names) > 0 {
			m.picked[m.field] = m.names[m.cursor]
			if m.field == fieldStart {
				m.field = fieldDestination
			}
		}
	case "c":
		return m, m.computeCmd()
	case "v":
		return m, m.selectCmd(m.mode.Other())
	case "s":
		return m, m.saveCmd()
	}
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder

	for _, mode := range view.Modes {
		style := tabInactiveStyle
		if mode == m.mode {
			style = tabActiveStyle
		}
		b.WriteString(style.Render(string(mode)))
	}
	b.WriteString("\n")
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ pick  tab field  c compute  v toggle view  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.fieldLine(fieldStart, "Start"))
	b.WriteString(m.fieldLine(fieldDestination, "Destination"))
	b.WriteString("\n")

	end := min(m.offset+m.height, len(m.names))
	for i := m.offset; i < end; i++ {
		line := "  " + m.names[i]
		style := listNormalStyle
		if i == m.cursor {
			line = "▸ " + m.names[i]
			style = listSelectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.busy != "" {
		b.WriteString(styleIconSpinner.Render("⠿") + " " + StyleDim.Render(m.busy) + "\n")
	}
	switch m.notice.kind {
	case view.NoticeFailure:
		b.WriteString(styleIconError.Render(iconError) + " " + m.notice.text + "\n")
	case view.NoticeNoRoute, view.NoticeInvalidInput:
		b.WriteString(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(m.notice.text) + "\n")
	}

	if m.result != nil {
		if m.mode == view.ModeInteractive {
			b.WriteString(m.mapSummary())
		} else {
			b.WriteString(resultPanel(m.result, m.result.Start(), m.result.End()))
		}
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	return b.String()
}

func (m viewModel) fieldLine(field int, label string) string {
	value := m.picked[field]
	if value == "" {
		value = listDimStyle.Render("--")
	}
	marker := "  "
	if m.field == field {
		marker = listSelectedStyle.Render("› ")
	}
	return marker + keyValue(label, value) + "\n"
}

func (m viewModel) mapSummary() string {
	state := "none"
	switch {
	case m.busy != "":
		state = "tracing"
	case m.hasRoute:
		state = "drawn"
	}
	return fmt.Sprintf("%s\n%s\n%s\n",
		keyValue("Markers", fmt.Sprint(m.markers)),
		keyValue("Connections", fmt.Sprint(m.lines)),
		keyValue("Route", state))
}
