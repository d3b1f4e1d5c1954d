package upload

import (
	"errors"
	"io"
	"sync"

	"github.com/kdimtricp/deepscan/internal/validation"
)

var (
	ErrDisabled = errors.New("uploads are disabled while a video is being analyzed")
	ErrNoFile   = errors.New("no file provided")
)

// Candidate is a file offered through the picker or a drop.
type Candidate struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// DropZone is the drag-and-drop surface, independent of any toolkit's
// event types.
type DropZone interface {
	OnEnter()
	OnOver()
	OnLeave()
	OnDrop(files []Candidate) error
}

type SelectFunc func(Candidate) error

type Widget struct {
	onSelect SelectFunc
	disabled func() bool

	mu     sync.Mutex
	active bool
}

var _ DropZone = (*Widget)(nil)

// NewWidget returns a widget that hands validated files to onSelect.
// disabled is consulted on every interaction; nil means always enabled.
func NewWidget(onSelect SelectFunc, disabled func() bool) *Widget {
	if disabled == nil {
		disabled = func() bool { return false }
	}
	return &Widget{onSelect: onSelect, disabled: disabled}
}

// Active reports whether a drag is hovering over the drop zone.
func (w *Widget) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Widget) Disabled() bool {
	return w.disabled()
}

func (w *Widget) OnEnter() { w.hover() }

func (w *Widget) OnOver() { w.hover() }

func (w *Widget) OnLeave() { w.setActive(false) }

// OnDrop accepts the first dropped file; the rest are ignored.
func (w *Widget) OnDrop(files []Candidate) error {
	w.setActive(false)
	return w.accept(files)
}

// Pick accepts the first file chosen in the file picker.
func (w *Widget) Pick(files []Candidate) error {
	return w.accept(files)
}

func (w *Widget) hover() {
	if w.disabled() {
		return
	}
	w.setActive(true)
}

func (w *Widget) setActive(active bool) {
	w.mu.Lock()
	w.active = active
	w.mu.Unlock()
}

func (w *Widget) accept(files []Candidate) error {
	if w.disabled() {
		return ErrDisabled
	}
	if len(files) == 0 {
		return ErrNoFile
	}

	file := files[0]
	if err := validation.Validate(file.ContentType, file.Size); err != nil {
		return err
	}
	return w.onSelect(file)
}
