package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OpenLocal describes a file on disk the way a browser would describe a
// picked file. The caller closes the returned file.
func OpenLocal(path string) (Candidate, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return Candidate{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Candidate{}, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return Candidate{}, nil, fmt.Errorf("%s is not a regular file", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		f.Close()
		return Candidate{}, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return Candidate{}, nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	return Candidate{
		Name:        filepath.Base(path),
		ContentType: ContentTypeFor(path, head[:n]),
		Size:        info.Size(),
		Content:     f,
	}, f, nil
}
