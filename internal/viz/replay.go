package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motorstart/internal/metrics"
)

const (
	replayWidth  = 60
	replayHeight = 16
	replayFPS    = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

var replayColumns = []string{"speed", "current", "torque", "power"}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/replayFPS, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Replay plays a stored run back: the selected column is traced on a
// Braille canvas up to the play head while the live accumulators update.
type Replay struct {
	title   string
	series  *metrics.Series
	fla     float64
	canvas  *Canvas
	head    int
	speed   int // samples per frame
	playing bool
	column  int
	accum   []metrics.Metric
}

func NewReplay(title string, s *metrics.Series, fullLoadCurrent float64) *Replay {
	r := &Replay{
		title:  title,
		series: s,
		fla:    fullLoadCurrent,
		canvas: NewCanvas(replayWidth, replayHeight),
		speed:  max(1, s.Len()/(10*replayFPS)),
	}
	r.restart()
	return r
}

func (r *Replay) restart() {
	r.head = 0
	r.playing = true
	r.accum = metrics.Running()
	r.observe(0)
}

func (r *Replay) observe(i int) {
	p := r.series.At(i)
	for _, m := range r.accum {
		m.Observe(p)
	}
}

// Head is the index of the newest displayed sample.
func (r *Replay) Head() int { return r.head }

func (r *Replay) Done() bool { return r.head >= r.series.Len()-1 }

// Advance moves the play head forward n samples, feeding each to the
// accumulators.
func (r *Replay) Advance(n int) {
	for i := 0; i < n && !r.Done(); i++ {
		r.head++
		r.observe(r.head)
	}
}

// Rewind moves the play head back, replaying the accumulators from the
// start since they cannot run backwards.
func (r *Replay) Rewind(n int) {
	target := max(0, r.head-n)
	playing := r.playing
	r.restart()
	r.playing = playing
	r.Advance(target)
}

func (r *Replay) Init() tea.Cmd { return tick() }

func (r *Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case " ":
			r.playing = !r.playing
		case "r":
			r.restart()
		case "right", "l":
			r.Advance(r.speed * replayFPS)
		case "left", "h":
			r.Rewind(r.speed * replayFPS)
		case "+", "=":
			r.speed *= 2
		case "-", "_":
			r.speed = max(1, r.speed/2)
		case "c":
			r.column = (r.column + 1) % len(replayColumns)
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == CurrentTheme.Name {
					SetTheme(names[(i+1)%len(names)])
					break
				}
			}
		}
	case TickMsg:
		if r.playing && !r.Done() {
			r.Advance(r.speed)
		}
		return r, tick()
	}
	return r, nil
}

func (r *Replay) draw() {
	r.canvas.Clear()
	col, _ := LookupColumn(replayColumns[r.column])
	ys := col.Get(r.series)
	lo, hi := ys[0], ys[0]
	for _, v := range ys {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	n := r.head + 1
	r.canvas.Trace(r.series.Time[:n], ys[:n], r.series.Time[0], r.series.Time[r.series.Len()-1], lo, hi)
}

func (r *Replay) View() string {
	r.draw()
	p := r.series.At(r.head)
	col, _ := LookupColumn(replayColumns[r.column])

	status := StatusRunning.Render("PLAYING")
	switch {
	case r.Done():
		status = Subtle.Render("DONE")
	case !r.playing:
		status = StatusPaused.Render("PAUSED")
	}

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(r.title)) + "\n")
	s.WriteString(fmt.Sprintf("%s  %d×\n\n", status, r.speed))
	s.WriteString(Row("Time", fmt.Sprintf("%.2f s", p.Time)) + "\n")
	s.WriteString(Row("Frequency", fmt.Sprintf("%.1f Hz", p.Frequency)) + "\n")
	s.WriteString(Row("Voltage", fmt.Sprintf("%.0f V", p.Voltage)) + "\n")
	s.WriteString(Row("Speed", fmt.Sprintf("%.0f RPM", p.SpeedRPM)) + "\n")
	s.WriteString(Row("Slip", fmt.Sprintf("%.1f %%", p.Slip)) + "\n")
	s.WriteString(Row("Current", fmt.Sprintf("%.0f A", p.Current)) + "\n")
	if r.fla > 0 {
		s.WriteString(MetricLabel.Render("  vs FLA") + ProgressBar(p.Current/(7*r.fla), 20) + "\n")
	}
	s.WriteString("\n")
	for _, m := range r.accum {
		s.WriteString(Row(m.Name(), fmt.Sprintf("%.2f", m.Value())) + "\n")
	}

	lo := max(0, r.head-200)
	if r.head-lo > 1 {
		chart := asciigraph.Plot(r.series.Current[lo:r.head+1], asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("current (A)"))
		s.WriteString("\n" + chart + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause ←→:Seek +-:Speed\nC:Column T:Theme R:Restart Q:Quit"))

	canvasView := canvasStyle.Render(Title.Render(col.Label) + "\n" + r.canvas.String() + ProgressBar(float64(r.head)/float64(max(1, r.series.Len()-1)), replayWidth))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// RunReplay starts the replay program on the alternate screen.
func RunReplay(title string, s *metrics.Series, fullLoadCurrent float64) error {
	_, err := tea.NewProgram(NewReplay(title, s, fullLoadCurrent), tea.WithAltScreen()).Run()
	return err
}
