package evidence

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// MaxUploadBytes is the hard ceiling for one evidence file.
const MaxUploadBytes int64 = 50 << 20

var (
	ErrEmptyUpload    = errors.New("file is empty")
	ErrUploadTooLarge = errors.New("file exceeds the upload size limit")
	ErrNoFilename     = errors.New("file name is missing")
)

// ValidateUpload rejects files before anything is stored. max is clamped to
// MaxUploadBytes. The declared content type is not inspected.
func ValidateUpload(name string, size, max int64) error {
	if max <= 0 || max > MaxUploadBytes {
		max = MaxUploadBytes
	}
	if strings.TrimSpace(name) == "" {
		return ErrNoFilename
	}
	if size <= 0 {
		return ErrEmptyUpload
	}
	if size > max {
		return fmt.Errorf("%w: %d bytes, limit is %d MB", ErrUploadTooLarge, size, max>>20)
	}
	return nil
}

const maxFilenameLen = 100

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		ok := r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxFilenameLen {
		out = out[len(out)-maxFilenameLen:]
	}
	if out == "" || out == "_" {
		return "file"
	}
	return out
}

// ObjectPath is the storage key of an uploaded file:
// {owner_id}/evidence/{unix_millis}-{sanitized_filename}.
func ObjectPath(ownerID uint, at time.Time, filename string) string {
	return fmt.Sprintf("%d/evidence/%d-%s", ownerID, at.UnixMilli(), SanitizeFilename(filename))
}
