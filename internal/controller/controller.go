package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/models"
	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/storage"
	"github.com/kdimtricp/deepscan/internal/upload"
)

var ErrStopped = errors.New("controller is not running")

var errNoResult = errors.New("analysis client returned no result")

type envelope struct {
	event state.Event
	reply chan result
}

type result struct {
	state state.State
	err   error
}

// Controller runs the UI state machine on a single goroutine. Callers submit
// events; the loop reduces them one at a time and then performs the effects.
type Controller struct {
	client  analysis.Client
	storage storage.Storage
	logger  *slog.Logger

	inbox   chan envelope
	stopped chan struct{}

	mu          sync.RWMutex
	current     state.State
	subscribers map[chan state.State]struct{}
	closed      bool
}

func New(client analysis.Client, store storage.Storage, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:      client,
		storage:     store,
		logger:      logger,
		inbox:       make(chan envelope, 16),
		stopped:     make(chan struct{}),
		subscribers: make(map[chan state.State]struct{}),
	}
}

// Run processes events until ctx is done. It must be called exactly once.
// In-flight analyses keep ctx and are not cancelled by a reset.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)
	defer c.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-c.inbox:
			st, err := c.apply(ctx, env.event)
			if env.reply != nil {
				env.reply <- result{state: st, err: err}
			}
		}
	}
}

// Dispatch submits ev and waits for the state it produced.
func (c *Controller) Dispatch(ctx context.Context, ev state.Event) (state.State, error) {
	env := envelope{event: ev, reply: make(chan result, 1)}

	select {
	case c.inbox <- env:
	case <-c.stopped:
		return state.State{}, ErrStopped
	case <-ctx.Done():
		return state.State{}, ctx.Err()
	}

	select {
	case res := <-env.reply:
		return res.state, res.err
	case <-c.stopped:
		return state.State{}, ErrStopped
	case <-ctx.Done():
		return state.State{}, ctx.Err()
	}
}

func (c *Controller) Select(ctx context.Context, file *models.SelectedFile) (state.State, error) {
	return c.Dispatch(ctx, state.FileSelected{File: file})
}

// Accept stages an accepted upload and selects it. It is the upload widget's
// SelectFunc.
func (c *Controller) Accept(cand upload.Candidate) error {
	stored, err := c.storage.SaveFile(cand.Content, storage.FileInfo{
		Filename:    cand.Name,
		ContentType: cand.ContentType,
		Size:        cand.Size,
	})
	if err != nil {
		return fmt.Errorf("staging video: %w", err)
	}

	file := models.NewSelectedFile(cand.Name, cand.ContentType, stored, cand.Size)
	if _, err := c.Select(context.Background(), file); err != nil {
		if delErr := c.storage.DeleteFile(stored); delErr != nil {
			c.logger.Warn("failed to release staged video", "file", stored, "error", delErr)
		}
		return err
	}
	return nil
}

func (c *Controller) Reanalyze(ctx context.Context) (state.State, error) {
	return c.Dispatch(ctx, state.AnalyzeRequested{})
}

func (c *Controller) Reset(ctx context.Context) (state.State, error) {
	return c.Dispatch(ctx, state.ResetRequested{})
}

// Snapshot returns the last committed state.
func (c *Controller) Snapshot() state.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Analyzing reports whether an analysis is in flight; the upload widget is
// disabled while it is.
func (c *Controller) Analyzing() bool {
	return c.Snapshot().Phase() == state.Analyzing
}

// Busy reports whether a file is selected, analyzed or not. A drop source
// that cannot see results uses it to wait for the reset.
func (c *Controller) Busy() bool {
	return c.Snapshot().Phase() != state.Idle
}

// Subscribe returns a channel that receives the current state and then every
// committed state. Slow subscribers skip intermediate states. The channel is
// closed when cancel is called or the controller stops.
func (c *Controller) Subscribe() (<-chan state.State, func()) {
	ch := make(chan state.State, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.current
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (c *Controller) apply(ctx context.Context, ev state.Event) (state.State, error) {
	prev := c.Snapshot()
	next, effects, err := state.Reduce(prev, ev)
	if err != nil {
		c.logger.Debug("event rejected", "event", fmt.Sprintf("%T", ev), "phase", prev.Phase().String(), "error", err)
		return prev, err
	}

	if next != prev {
		c.commit(next)
		c.logger.Info("state changed", "from", prev.Phase().String(), "to", next.Phase().String(), "cycle", next.Cycle)
	}

	for _, effect := range effects {
		c.perform(ctx, effect)
	}
	return next, nil
}

func (c *Controller) commit(next state.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = next
	for ch := range c.subscribers {
		// Keep only the newest state for subscribers that fell behind.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

func (c *Controller) closeSubscribers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

func (c *Controller) perform(ctx context.Context, effect state.Effect) {
	switch effect := effect.(type) {
	case state.StartAnalysis:
		go c.analyze(ctx, effect)
	case state.ReleaseFile:
		if err := c.storage.DeleteFile(effect.File.StoredName); err != nil {
			c.logger.Warn("failed to release staged video", "file", effect.File.StoredName, "error", err)
		}
	}
}

func (c *Controller) analyze(ctx context.Context, job state.StartAnalysis) {
	logger := c.logger.With("cycle", job.Cycle, "video", job.File.Name)
	logger.Info("analysis started", "size", job.File.Size)

	var ev state.Event
	res, err := c.runClient(ctx, job.File)
	if err == nil && res == nil {
		err = errNoResult
	}
	if err != nil {
		logger.Error("analysis failed", "error", err)
		ev = state.AnalysisFailed{Cycle: job.Cycle, Message: userMessage(err)}
	} else {
		logger.Info("analysis completed", "prediction", string(res.Prediction), "confidence", res.Confidence)
		ev = state.AnalysisSucceeded{Cycle: job.Cycle, Result: res}
	}

	select {
	case c.inbox <- envelope{event: ev}:
	case <-ctx.Done():
	}
}

func (c *Controller) runClient(ctx context.Context, file *models.SelectedFile) (*models.AnalysisResult, error) {
	body, err := c.storage.OpenFile(file.StoredName)
	if err != nil {
		return nil, fmt.Errorf("opening staged video: %w", err)
	}
	defer body.Close()

	return c.client.Analyze(ctx, analysis.Upload{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		Body:        body,
	})
}

func userMessage(err error) string {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return "Error: " + aerr.Error()
	}
	return state.FailedNotice
}
