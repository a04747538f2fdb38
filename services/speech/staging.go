package speech

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gramgyan/backend/services"
)

// Stager writes uploads to uniquely named temporary files.
type Stager struct {
	dir      string
	maxBytes int64
}

// NewStager creates a stager writing into dir (os.TempDir when empty).
// maxBytes <= 0 disables the size check.
func NewStager(dir string, maxBytes int64) *Stager {
	return &Stager{dir: dir, maxBytes: maxBytes}
}

// WithStagedFile copies r into a temp file, calls fn with its path and
// removes the file on every exit path, including a panic in fn.
func (s *Stager) WithStagedFile(r io.Reader, filename string, fn func(path string) error) (err error) {
	f, err := os.CreateTemp(s.dir, pattern(filename))
	if err != nil {
		return services.WrapInternal("failed to stage upload", err)
	}
	path := f.Name()
	defer os.Remove(path)

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return services.WrapInternal("failed to stage upload", err)
	}
	if n == 0 {
		return services.NewValidationError("uploaded file is empty")
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return services.NewValidationError(fmt.Sprintf("uploaded file exceeds %d bytes", s.maxBytes))
	}

	return fn(path)
}

// pattern keeps the upload's extension so providers can sniff the format.
func pattern(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `*/\`) {
		ext = ""
	}
	return "temp_" + uuid.NewString() + "_*" + ext
}
