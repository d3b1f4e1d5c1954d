package analysis

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
)

const (
	DefaultStubDelay = 3 * time.Second

	stubMinConfidence = 60.0
	stubMaxConfidence = 90.0
)

// Stub stands in for the detection service. It never reads the video and
// answers with a random verdict after a fixed delay.
type Stub struct {
	delay time.Duration
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewStub(delay time.Duration) *Stub {
	return &Stub{
		delay: delay,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Stub) Analyze(ctx context.Context, _ Upload) (*models.AnalysisResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, newError("", 0, ctx.Err())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Synthesize(s.rng, s.now()), nil
}

// Synthesize draws a fair REAL/FAKE verdict and a confidence uniform in
// [60, 90], rounded to two decimals.
func Synthesize(rng *rand.Rand, now time.Time) *models.AnalysisResult {
	prediction := models.PredictionFake
	if rng.Float64() > 0.5 {
		prediction = models.PredictionReal
	}

	confidence := stubMinConfidence + rng.Float64()*(stubMaxConfidence-stubMinConfidence)
	confidence = math.Round(confidence*100) / 100

	return &models.AnalysisResult{
		Prediction: prediction,
		Confidence: confidence,
		Timestamp:  now.UTC(),
	}
}
