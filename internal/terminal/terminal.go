// Package terminal renders UI states on a terminal: a spinner while a video
// is analyzed, then a result panel.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/view"
)

const meterWidth = 30

var isTerminal = term.IsTerminal

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	real   lipgloss.Style
	fake   lipgloss.Style
	notice lipgloss.Style
	panel  lipgloss.Style
	subtle lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		label:  r.NewStyle().Foreground(lipgloss.Color("245")),
		real:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		fake:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		notice: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		panel:  r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		subtle: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Renderer follows committed states. It is safe for use by one
// subscriber goroutine plus a final Close.
type Renderer struct {
	out         io.Writer
	interactive bool
	styles      styles

	mu          sync.Mutex
	spinnerStop chan struct{}
	spinnerDone chan struct{}
	lastCycle   uint64
	lastShown   string
}

func New(out io.Writer) *Renderer {
	interactive := false
	if f, ok := out.(interface{ Fd() uintptr }); ok {
		interactive = isTerminal(int(f.Fd()))
	}
	return &Renderer{
		out:         out,
		interactive: interactive,
		styles:      newStyles(lipgloss.NewRenderer(out)),
	}
}

// Render shows s. Repeated states do not print twice.
func (r *Renderer) Render(s state.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	progress := view.Progress(s)
	if progress.Visible {
		r.startSpinner(progress.Label)
		return
	}
	r.stopSpinner()

	page := view.Page(s)
	var shown string
	switch {
	case page.Result.Visible:
		shown = r.ResultPanel(page)
	case page.Notice != "":
		shown = r.styles.notice.Render(page.Notice)
	default:
		return
	}

	if shown == r.lastShown && s.Cycle == r.lastCycle {
		return
	}
	r.lastShown, r.lastCycle = shown, s.Cycle
	fmt.Fprintln(r.out, shown)
}

// Close stops a running spinner.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
}

// ResultPanel draws the result card for p, including the selected file.
func (r *Renderer) ResultPanel(p view.PageView) string {
	res := p.Result
	verdict := r.styles.fake
	if res.Tone == view.ToneReal {
		verdict = r.styles.real
	}

	var b strings.Builder
	b.WriteString(r.styles.title.Render(res.Headline))
	b.WriteString("\n\n")
	if p.File != nil {
		fmt.Fprintf(&b, "%s %s (%s)\n", r.styles.label.Render("File:"), p.File.Name, p.File.Size)
	}
	fmt.Fprintf(&b, "%s %s\n", r.styles.label.Render("Prediction:"), verdict.Render(res.Prediction))
	fmt.Fprintf(&b, "%s %s\n", r.styles.label.Render("Confidence:"), res.Confidence)
	b.WriteString(verdict.Render(Meter(res.Percent, meterWidth)))
	b.WriteString("\n")
	if res.AnalyzedAt != "" {
		fmt.Fprintf(&b, "%s\n", r.styles.subtle.Render("Analyzed at "+res.AnalyzedAt))
	}
	b.WriteString(res.Message)

	return r.styles.panel.Render(b.String())
}

// Meter draws a bar of width cells filled to percent.
func Meter(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(percent / 100 * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (r *Renderer) startSpinner(label string) {
	if r.spinnerStop != nil {
		return
	}
	if !r.interactive {
		fmt.Fprintln(r.out, label)
		r.spinnerStop = make(chan struct{})
		r.spinnerDone = make(chan struct{})
		close(r.spinnerDone)
		return
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)

	stop := make(chan struct{})
	done := make(chan struct{})
	r.spinnerStop, r.spinnerDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				bar.Finish()
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()
}

func (r *Renderer) stopSpinner() {
	if r.spinnerStop == nil {
		return
	}
	close(r.spinnerStop)
	<-r.spinnerDone
	r.spinnerStop, r.spinnerDone = nil, nil
}
