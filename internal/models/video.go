package models

import (
	"time"

	"github.com/google/uuid"
)

// SelectedFile is the video the user picked for the current analysis cycle.
// StoredName is the handle of the staged bytes in storage.
type SelectedFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StoredName  string    `json:"stored_name"`
	SelectedAt  time.Time `json:"selected_at"`
}

func NewSelectedFile(name, contentType, storedName string, size int64) *SelectedFile {
	return &SelectedFile{
		ID:          uuid.New().String(),
		Name:        name,
		Size:        size,
		ContentType: contentType,
		StoredName:  storedName,
		SelectedAt:  time.Now(),
	}
}

// SizeMB is the size in mebibytes, as shown next to the file name.
func (f *SelectedFile) SizeMB() float64 {
	return float64(f.Size) / (1024 * 1024)
}
