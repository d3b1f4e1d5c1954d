package view

import (
	"fmt"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
	"github.com/kdimtricp/deepscan/internal/state"
)

const (
	ToneReal = "real"
	ToneFake = "fake"
)

type ProgressView struct {
	Visible bool
	Label   string
}

// Progress is shown only while an analysis is in flight.
func Progress(s state.State) ProgressView {
	if !s.Loading {
		return ProgressView{}
	}
	return ProgressView{Visible: true, Label: "Analyzing video..."}
}

type ResultView struct {
	Visible    bool
	Prediction string
	Confidence string
	// Percent is the confidence clamped to [0, 100] for the meter width.
	Percent    float64
	AnalyzedAt string
	Tone       string
	Headline   string
	Message    string
}

func Result(s state.State) ResultView {
	if s.Loading || s.Result == nil {
		return ResultView{}
	}
	return resultView(s.Result)
}

func resultView(r *models.AnalysisResult) ResultView {
	v := ResultView{
		Visible:    true,
		Prediction: string(r.Prediction),
		Confidence: fmt.Sprintf("%.2f%%", r.Confidence),
		Percent:    clamp(r.Confidence, 0, 100),
		AnalyzedAt: r.Timestamp.Local().Format(time.DateTime),
		Headline:   "Analysis Result",
	}
	if r.IsReal() {
		v.Tone = ToneReal
		v.Message = "This video appears to be REAL based on the analysis."
	} else {
		v.Tone = ToneFake
		v.Message = "This video appears to be a DEEPFAKE based on the analysis."
	}
	return v
}

type FileView struct {
	Name string
	Size string
}

type ActionsView struct {
	ShowReset         bool
	ResetDisabled     bool
	ShowAnalyzeAgain  bool
	AnalyzeDisabled   bool
	AnalyzeLabel      string
	ShowUploadAnother bool
}

type PageView struct {
	Phase        string
	ShowUploader bool
	File         *FileView
	Progress     ProgressView
	Result       ResultView
	Actions      ActionsView
	Notice       string
	MaxSizeLabel string
}

func Page(s state.State) PageView {
	p := PageView{
		Phase:        s.Phase().String(),
		ShowUploader: s.File == nil,
		Progress:     Progress(s),
		Result:       Result(s),
		Notice:       s.Notice,
		MaxSizeLabel: "Max file size: 100MB",
	}

	if s.File != nil {
		p.File = &FileView{
			Name: s.File.Name,
			Size: fmt.Sprintf("%.2f MB", s.File.SizeMB()),
		}
		p.Actions.ShowReset = true
		p.Actions.ResetDisabled = s.Loading
	}

	if s.File != nil && s.Result == nil {
		p.Actions.ShowAnalyzeAgain = true
		p.Actions.AnalyzeDisabled = s.Loading
		p.Actions.AnalyzeLabel = "Analyze Again"
		if s.Loading {
			p.Actions.AnalyzeLabel = "Analyzing..."
		}
	}

	p.Actions.ShowUploadAnother = s.Result != nil
	return p
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
