package state

import "fmt"

// FailedNotice is shown when an analysis fails without a service message.
const FailedNotice = "Failed to analyze video. Please try again."

// Reduce applies ev to s. On error s is returned unchanged and no effects
// are produced. Completions for a cycle other than the current one are
// dropped without error.
func Reduce(s State, ev Event) (State, []Effect, error) {
	switch ev := ev.(type) {
	case FileSelected:
		if ev.File == nil {
			return s, nil, ErrNoFile
		}
		if s.Phase() != Idle {
			return s, nil, ErrInvalidTransition
		}
		next := State{File: ev.File, Cycle: s.Cycle}
		return start(next)

	case AnalyzeRequested:
		switch s.Phase() {
		case Idle:
			return s, nil, ErrNoFile
		case Analyzing:
			return s, nil, ErrAnalysisInFlight
		}
		next := State{File: s.File, Cycle: s.Cycle}
		return start(next)

	case AnalysisSucceeded:
		if !current(s, ev.Cycle) {
			return s, nil, nil
		}
		if ev.Result == nil {
			return State{File: s.File, Notice: FailedNotice, Cycle: s.Cycle}, nil, nil
		}
		return State{File: s.File, Result: ev.Result, Cycle: s.Cycle}, nil, nil

	case AnalysisFailed:
		if !current(s, ev.Cycle) {
			return s, nil, nil
		}
		return State{File: s.File, Notice: ev.Message, Cycle: s.Cycle}, nil, nil

	case ResetRequested:
		var effects []Effect
		if s.File != nil {
			effects = append(effects, ReleaseFile{File: s.File})
		}
		return State{Cycle: s.Cycle}, effects, nil
	}

	return s, nil, fmt.Errorf("unknown event %T", ev)
}

func start(s State) (State, []Effect, error) {
	s.Cycle++
	s.Loading = true
	return s, []Effect{StartAnalysis{Cycle: s.Cycle, File: s.File}}, nil
}

func current(s State, cycle uint64) bool {
	return s.Loading && s.Cycle == cycle
}
