package models

import (
	"fmt"
	"time"
)

type Prediction string

const (
	PredictionReal Prediction = "REAL"
	PredictionFake Prediction = "FAKE"
)

func ParsePrediction(s string) (Prediction, error) {
	switch p := Prediction(s); p {
	case PredictionReal, PredictionFake:
		return p, nil
	}
	return "", fmt.Errorf("unknown prediction %q", s)
}

// AnalysisResult is immutable once created; confidence is a percentage.
type AnalysisResult struct {
	Prediction Prediction `json:"prediction"`
	Confidence float64    `json:"confidence"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (r *AnalysisResult) IsReal() bool {
	return r.Prediction == PredictionReal
}
