package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kdimtricp/deepscan/internal/models"
)

// MaxResponseBytes caps the detection service's response body.
const MaxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// analyzeResponse covers both the documented payload and the older backend
// that reports the verdict under "result" without a timestamp.
type analyzeResponse struct {
	Prediction string   `json:"prediction"`
	Result     string   `json:"result"`
	Confidence *float64 `json:"confidence"`
	Timestamp  string   `json:"timestamp"`
	Error      string   `json:"error"`
	Detail     string   `json:"detail"`
}

func (c *HTTPClient) Analyze(ctx context.Context, upload Upload) (*models.AnalysisResult, error) {
	if upload.Body == nil {
		return nil, newError("", 0, errors.New("no video content to upload"))
	}

	body, contentType := multipartBody(upload)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", body)
	if err != nil {
		return nil, newError("", 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError("", 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, newError("", resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if len(raw) > MaxResponseBytes {
		return nil, newError("", resp.StatusCode, fmt.Errorf("response body too large (limit %d bytes)", MaxResponseBytes))
	}

	var payload analyzeResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := payload.Error
		if message == "" {
			message = payload.Detail
		}
		return nil, newError(message, resp.StatusCode, fmt.Errorf("detection service returned %s", resp.Status))
	}
	if decodeErr != nil {
		return nil, newError("", resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", decodeErr))
	}
	if payload.Error != "" {
		return nil, newError(payload.Error, resp.StatusCode, nil)
	}

	return c.toResult(payload)
}

func (c *HTTPClient) toResult(payload analyzeResponse) (*models.AnalysisResult, error) {
	label := payload.Prediction
	if label == "" {
		label = payload.Result
	}
	prediction, err := models.ParsePrediction(strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return nil, newError("", 0, err)
	}

	if payload.Confidence == nil {
		return nil, newError("", 0, errors.New("response has no confidence"))
	}
	confidence := *payload.Confidence
	if confidence < 0 || confidence > 100 {
		return nil, newError("", 0, fmt.Errorf("confidence %v outside [0, 100]", confidence))
	}

	timestamp := c.now().UTC()
	if payload.Timestamp != "" {
		timestamp, err = parseTimestamp(payload.Timestamp)
		if err != nil {
			return nil, newError("", 0, err)
		}
	}

	return &models.AnalysisResult{
		Prediction: prediction,
		Confidence: confidence,
		Timestamp:  timestamp,
	}, nil
}

// Zone-less ISO-8601 timestamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// multipartBody streams the upload as a "video" form file so large videos
// are not buffered in memory.
func multipartBody(upload Upload) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, upload.Name))
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, upload.Body); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	return pr, writer.FormDataContentType()
}
