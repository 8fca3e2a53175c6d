package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/engine"
	"github.com/san-kum/nbodylab/internal/metrics"
)

const (
	canvasWidth     = 80
	canvasHeight    = 24
	historyCapacity = 600
	fitRadius       = 1.5
	zoomFactor      = 1.25
	panDots         = 8.0
	tuneFactor      = 1.25
	minEps          = 1e-4
)

// Controller is the engine surface the live view drives.
type Controller interface {
	Send(ctx context.Context, cmd engine.Command) error
	Frames() <-chan dynamo.Frame
}

type Options struct {
	Title   string
	Params  dynamo.Params
	Playing bool
	Speed   int
	FPS     int
	// Reseed returns a fresh body set for the reseed key. Nil disables it.
	Reseed func() []dynamo.Body
}

type refreshMsg time.Time

type frameMsg dynamo.Frame

type closedMsg struct{}

// Model renders frames from an engine and turns keys into commands.
type Model struct {
	ctx           context.Context
	ctl           Controller
	title         string
	reseed        func() []dynamo.Body
	params        dynamo.Params
	playing       bool
	speed         int
	fps           int
	frame         dynamo.Frame
	received      int
	canvas        *Canvas
	camera        *Camera
	trails        bool
	energyHistory []float64
	drift         *metrics.EnergyDrift
	theme         int
	styles        styles
	showHelp      bool
	err           error
}

func NewModel(ctx context.Context, ctl Controller, opts Options) Model {
	if opts.Speed < 1 {
		opts.Speed = 1
	}
	if opts.FPS < 1 {
		opts.FPS = 60
	}
	canvas := NewCanvas(canvasWidth, canvasHeight)
	return Model{
		ctx:           ctx,
		ctl:           ctl,
		title:         opts.Title,
		reseed:        opts.Reseed,
		params:        opts.Params,
		playing:       opts.Playing,
		speed:         opts.Speed,
		fps:           opts.FPS,
		canvas:        canvas,
		camera:        NewCamera(float64(canvas.DotHeight()) / (2 * fitRadius)),
		energyHistory: make([]float64, 0, historyCapacity),
		drift:         metrics.NewEnergyDrift(),
		styles:        newStyles(themes[0]),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitFrame(m.ctl.Frames()), m.refresh())
}

func (m Model) refresh() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func waitFrame(frames <-chan dynamo.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return closedMsg{}
		}
		return frameMsg(f)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case refreshMsg:
		// extra steps on top of whatever the heartbeat has run
		if m.playing && m.speed > 1 {
			m.send(engine.Step{Count: m.speed - 1})
		}
		return m, m.refresh()
	case frameMsg:
		m.observe(dynamo.Frame(msg))
		return m, waitFrame(m.ctl.Frames())
	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	cw, ch := float64(m.canvas.DotWidth()), float64(m.canvas.DotHeight())
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.send(engine.SetPlaying{Playing: !m.playing}) {
			m.playing = !m.playing
		}
	case "s":
		m.send(engine.Step{Count: 1})
	case "r":
		if m.reseed != nil {
			m.send(engine.ReplaceBodies{Bodies: m.reseed()})
		}
	case "m":
		next := dynamo.RK4
		if m.params.Method == dynamo.RK4 {
			next = dynamo.Leapfrog
		}
		m.patch(dynamo.PartialParams{Method: &next})
	case "]":
		dt := m.params.Dt * tuneFactor
		m.patch(dynamo.PartialParams{Dt: &dt})
	case "[":
		dt := m.params.Dt / tuneFactor
		m.patch(dynamo.PartialParams{Dt: &dt})
	case "g":
		g := m.params.G * tuneFactor
		m.patch(dynamo.PartialParams{G: &g})
	case "G":
		g := m.params.G / tuneFactor
		m.patch(dynamo.PartialParams{G: &g})
	case "e":
		eps := m.params.Eps * tuneFactor
		if eps < minEps {
			eps = minEps
		}
		m.patch(dynamo.PartialParams{Eps: &eps})
	case "E":
		eps := m.params.Eps / tuneFactor
		if eps < minEps {
			eps = 0
		}
		m.patch(dynamo.PartialParams{Eps: &eps})
	case ">", ".":
		m.speed++
	case "<", ",":
		if m.speed > 1 {
			m.speed--
		}
	case "+", "=":
		m.camera.ZoomAt(cw/2, ch/2, cw, ch, zoomFactor)
	case "-", "_":
		m.camera.ZoomAt(cw/2, ch/2, cw, ch, 1/zoomFactor)
	case "left", "h":
		m.camera.Pan(panDots, 0)
	case "right", "l":
		m.camera.Pan(-panDots, 0)
	case "up", "k":
		m.camera.Pan(0, panDots)
	case "down", "j":
		m.camera.Pan(0, -panDots)
	case "0":
		m.camera.Reset()
	case "t":
		m.trails = !m.trails
	case "T":
		m.theme = (m.theme + 1) % len(themes)
		m.styles = newStyles(themes[m.theme])
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// send forwards cmd and records the outcome for the status line.
func (m *Model) send(cmd engine.Command) bool {
	m.err = m.ctl.Send(m.ctx, cmd)
	return m.err == nil
}

func (m *Model) patch(p dynamo.PartialParams) {
	if m.send(engine.UpdateParameters{Params: p}) {
		m.params = m.params.Merge(p)
	}
}

// observe records a frame. A clock that went backwards means the body set
// was replaced, so energy tracking starts over.
func (m *Model) observe(f dynamo.Frame) {
	if m.received > 0 && f.Energies.T < m.frame.Energies.T {
		m.drift.Reset()
		m.energyHistory = m.energyHistory[:0]
	}
	m.frame = f
	m.received++
	m.drift.Observe(f.Energies)
	m.energyHistory = append(m.energyHistory, f.Energies.E)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) draw() {
	if !m.trails {
		m.canvas.Clear()
	}
	cw, ch := float64(m.canvas.DotWidth()), float64(m.canvas.DotHeight())
	pos := m.frame.Positions
	for i := 0; i+1 < len(pos); i += 2 {
		x, y := m.camera.WorldToScreen(dynamo.V(pos[i], pos[i+1]), cw, ch)
		m.canvas.Plot(x, y)
	}
}

func (m Model) View() string {
	m.draw()
	st := m.styles

	var s strings.Builder
	title := m.title
	if title == "" {
		title = "n-body"
	}
	s.WriteString(st.header.Render(strings.ToUpper(title)) + "\n")

	status := "PLAYING"
	if !m.playing {
		status = "PAUSED"
	}
	if m.received == 0 {
		status = "WAITING"
	}
	s.WriteString(st.active.Render(status) + "\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	en := m.frame.Energies
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("t", fmt.Sprintf("%.4f", en.T))
	row("K", fmt.Sprintf("%.6f", en.K))
	row("U", fmt.Sprintf("%.6f", en.U))
	row("E", fmt.Sprintf("%.6f", en.E))
	drift := fmt.Sprintf("%.2e", m.drift.Current())
	if m.drift.Current() > 1e-3 {
		drift = st.warn.Render(drift)
	}
	row("dE/E0", drift)
	row("bodies", fmt.Sprintf("%d", m.frame.NumBodies()))
	s.WriteString("\n")
	row("method", m.params.Method.String())
	row("dt", fmt.Sprintf("%g", m.params.Dt))
	row("G", fmt.Sprintf("%g", m.params.G))
	row("eps", fmt.Sprintf("%g", m.params.Eps))
	row("speed", fmt.Sprintf("%d/frame", m.speed))
	row("zoom", fmt.Sprintf("%.0f", m.camera.S))

	if m.err != nil {
		s.WriteString(st.warn.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("SP:Play S:Step R:Reseed M:Method ?:Help Q:Quit"))

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(m.canvas.String()),
		st.stats.Render(s.String()),
	)
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `  Space    play / pause        s      single step
  r        reseed bodies       m      leapfrog / rk4
  [ ]      dt down / up        g G    G up / down
  e E      eps up / down       < >    speed down / up
  + -      zoom                hjkl   pan
  0        reset camera        t      trails
  T        cycle theme         q      quit`

// Run drives the model until the user quits or the engine stops.
func Run(ctx context.Context, ctl Controller, opts Options) error {
	_, err := tea.NewProgram(NewModel(ctx, ctl, opts), tea.WithAltScreen()).Run()
	return err
}
