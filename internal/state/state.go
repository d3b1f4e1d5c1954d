package state

import (
	"errors"
	"fmt"

	"github.com/kdimtricp/deepscan/internal/models"
)

type Phase int

const (
	Idle Phase = iota
	Selected
	Analyzing
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Analyzing:
		return "analyzing"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var (
	ErrInvalidTransition = errors.New("a video is already selected")
	ErrNoFile            = errors.New("no video selected")
	ErrAnalysisInFlight  = errors.New("analysis already in progress")
)

// State is the whole UI session. Phase is derived from it, never stored.
// Cycle numbers analysis runs so late completions can be told apart.
type State struct {
	File    *models.SelectedFile   `json:"file,omitempty"`
	Loading bool                   `json:"loading"`
	Result  *models.AnalysisResult `json:"result,omitempty"`
	Notice  string                 `json:"notice,omitempty"`
	Cycle   uint64                 `json:"cycle"`
}

func (s State) Phase() Phase {
	switch {
	case s.File == nil:
		return Idle
	case s.Loading:
		return Analyzing
	case s.Result != nil:
		return Completed
	default:
		return Selected
	}
}

// Consistent reports whether s satisfies the loading/result exclusion.
func (s State) Consistent() bool {
	if s.Loading && s.Result != nil {
		return false
	}
	if s.File == nil && (s.Loading || s.Result != nil) {
		return false
	}
	return true
}
