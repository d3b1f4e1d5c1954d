package state

import "github.com/kdimtricp/deepscan/internal/models"

type Event interface {
	event()
}

type FileSelected struct {
	File *models.SelectedFile
}

type AnalyzeRequested struct{}

type AnalysisSucceeded struct {
	Cycle  uint64
	Result *models.AnalysisResult
}

type AnalysisFailed struct {
	Cycle   uint64
	Message string
}

type ResetRequested struct{}

func (FileSelected) event()      {}
func (AnalyzeRequested) event()  {}
func (AnalysisSucceeded) event() {}
func (AnalysisFailed) event()    {}
func (ResetRequested) event()    {}

// Effect is work the controller performs after committing a new state.
type Effect interface {
	effect()
}

type StartAnalysis struct {
	Cycle uint64
	File  *models.SelectedFile
}

type ReleaseFile struct {
	File *models.SelectedFile
}

func (StartAnalysis) effect() {}
func (ReleaseFile) effect()   {}
