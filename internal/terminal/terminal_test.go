package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
	"github.com/kdimtricp/deepscan/internal/state"
)

func completedState(prediction models.Prediction, confidence float64) state.State {
	return state.State{
		File: models.NewSelectedFile("clip.mp4", "video/mp4", "stored.mp4", 5*1024*1024),
		Result: &models.AnalysisResult{
			Prediction: prediction,
			Confidence: confidence,
			Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Cycle: 1,
	}
}

func TestMeter(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		filled  int
	}{
		{percent: 0, width: 10, filled: 0},
		{percent: 50, width: 10, filled: 5},
		{percent: 87.5, width: 10, filled: 9},
		{percent: 100, width: 10, filled: 10},
		{percent: 150, width: 10, filled: 10},
		{percent: -5, width: 10, filled: 0},
	}

	for _, tt := range tests {
		got := Meter(tt.percent, tt.width)
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("Meter(%v, %d) filled %d cells, want %d", tt.percent, tt.width, n, tt.filled)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != tt.width {
			t.Errorf("Meter(%v, %d) has %d cells", tt.percent, tt.width, n)
		}
	}

	if Meter(50, 0) != "" {
		t.Error("expected empty meter for zero width")
	}
}

func TestRender_ResultPanel(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Render(completedState(models.PredictionFake, 72.5))

	out := buf.String()
	for _, want := range []string{
		"Analysis Result",
		"clip.mp4 (5.00 MB)",
		"Prediction: FAKE",
		"Confidence: 72.50%",
		"This video appears to be a DEEPFAKE based on the analysis.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("unexpected ANSI codes when not writing to a terminal: %q", out)
	}
}

func TestRender_ProgressThenResult(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	defer r.Close()

	loading := state.State{
		File:    models.NewSelectedFile("clip.mp4", "video/mp4", "stored.mp4", 1024),
		Loading: true,
		Cycle:   1,
	}
	r.Render(loading)
	r.Render(loading)

	if got := strings.Count(buf.String(), "Analyzing video..."); got != 1 {
		t.Fatalf("expected progress label once, got %d in %q", got, buf.String())
	}

	done := completedState(models.PredictionReal, 88)
	r.Render(done)
	r.Render(done)

	out := buf.String()
	if got := strings.Count(out, "Analysis Result"); got != 1 {
		t.Errorf("expected one result panel, got %d", got)
	}
	if !strings.Contains(out, "This video appears to be REAL based on the analysis.") {
		t.Errorf("missing real verdict message:\n%s", out)
	}
}

func TestRender_NoticeAndIdle(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Render(state.State{})
	if buf.Len() != 0 {
		t.Fatalf("idle state should print nothing, got %q", buf.String())
	}

	r.Render(state.State{
		File:   models.NewSelectedFile("clip.mp4", "video/mp4", "stored.mp4", 1024),
		Notice: "Error: service unavailable",
		Cycle:  1,
	})
	if !strings.Contains(buf.String(), "Error: service unavailable") {
		t.Errorf("expected notice, got %q", buf.String())
	}
}
