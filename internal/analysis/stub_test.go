package analysis

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
)

func TestSynthesize_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	seen := map[models.Prediction]int{}

	for i := 0; i < 10000; i++ {
		result := Synthesize(rng, now)
		if result.Confidence < 60 || result.Confidence > 90 {
			t.Fatalf("confidence %v outside [60, 90]", result.Confidence)
		}
		if rounded := float64(int64(result.Confidence*100+0.5)) / 100; rounded != result.Confidence {
			t.Fatalf("confidence %v not rounded to two decimals", result.Confidence)
		}
		if !result.Timestamp.Equal(now) {
			t.Fatalf("expected timestamp %v, got %v", now, result.Timestamp)
		}
		seen[result.Prediction]++
	}

	if len(seen) != 2 {
		t.Fatalf("expected both predictions, got %v", seen)
	}
	for prediction, n := range seen {
		if n < 4000 {
			t.Errorf("prediction %s drawn only %d times out of 10000", prediction, n)
		}
	}
}

func TestStub_Analyze(t *testing.T) {
	stub := NewStub(10 * time.Millisecond)

	start := time.Now()
	result, err := stub.Analyze(context.Background(), Upload{Name: "clip.mp4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("stub answered after %v, before its delay", elapsed)
	}
	if result.Prediction != models.PredictionReal && result.Prediction != models.PredictionFake {
		t.Errorf("unexpected prediction %q", result.Prediction)
	}
	if result.Confidence < 60 || result.Confidence > 90 {
		t.Errorf("confidence %v outside [60, 90]", result.Confidence)
	}
}

func TestStub_ContextDone(t *testing.T) {
	stub := NewStub(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stub.Analyze(ctx, Upload{})
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cause context.Canceled, got %v", aerr.Cause)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{name: "default", cfg: Config{}, want: "*analysis.Stub"},
		{name: "stub", cfg: Config{Mode: ModeStub}, want: "*analysis.Stub"},
		{name: "http", cfg: Config{Mode: ModeHTTP, BaseURL: DefaultBaseURL}, want: "*analysis.HTTPClient"},
		{name: "http without url", cfg: Config{Mode: ModeHTTP}, wantErr: true},
		{name: "unknown", cfg: Config{Mode: "grpc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got string
			switch client.(type) {
			case *Stub:
				got = "*analysis.Stub"
			case *HTTPClient:
				got = "*analysis.HTTPClient"
			}
			if got != tt.want {
				t.Errorf("expected %s, got %T", tt.want, client)
			}
		})
	}
}
