package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
)

// DefaultBaseURL is where the detection service is expected to listen.
const DefaultBaseURL = "http://localhost:5000/api"

const (
	ModeStub = "stub"
	ModeHTTP = "http"
)

// Upload is the video handed to a Client. Body may be nil for clients that
// do not read the content.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Client analyzes one video per call. Implementations do not retry.
type Client interface {
	Analyze(ctx context.Context, upload Upload) (*models.AnalysisResult, error)
}

type Config struct {
	Mode    string
	BaseURL string
	// Delay is how long the stub pretends to work.
	Delay time.Duration
	// Timeout bounds HTTP calls; zero means no timeout.
	Timeout time.Duration
}

func NewConfig() *Config {
	return &Config{
		Mode:    ModeStub,
		BaseURL: DefaultBaseURL,
		Delay:   DefaultStubDelay,
	}
}

func New(cfg *Config) (Client, error) {
	switch cfg.Mode {
	case "", ModeStub:
		return NewStub(cfg.Delay), nil
	case ModeHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("analysis base URL is required in %s mode", ModeHTTP)
		}
		return NewHTTPClient(cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown analysis mode %q", cfg.Mode)
	}
}
