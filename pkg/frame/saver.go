package frame

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Saver writes lossless PNG copies of captures into a directory.
// File names carry a strictly increasing nanosecond timestamp.
type Saver struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	last int64
}

// NewSaver creates a saver writing into dir. The directory is created on first save.
func NewSaver(dir string) *Saver {
	return &Saver{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes img and returns its path.
func (s *Saver) Save(img image.Image) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("frame: create snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("screenshot_%d.png", s.nextStamp()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("frame: create snapshot: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("frame: encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("frame: close snapshot: %w", err)
	}
	return path, nil
}

func (s *Saver) nextStamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UnixNano()
	if stamp <= s.last {
		stamp = s.last + 1
	}
	s.last = stamp
	return stamp
}
