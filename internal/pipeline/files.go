package pipeline

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/pkg/aps"
)

// ValidateFilename rejects empty names and extensions outside allowed.
func ValidateFilename(name string, allowed []string) error {
	if name == "" {
		return fmt.Errorf("%w: no file provided", aps.ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(allowed, ext) {
		return fmt.Errorf(
			"%w: unsupported file type %q, supported: %s",
			aps.ErrValidation, ext, strings.Join(allowed, ", "),
		)
	}
	return nil
}

// ObjectKey returns the storage key for an upload: "<job id>_<base name>".
func ObjectKey(id uuid.UUID, filename string) string {
	return id.String() + "_" + sanitizeFilename(filename)
}

// UploadPath returns the local staging path for an upload.
func UploadPath(dir string, id uuid.UUID, filename string) string {
	return filepath.Join(dir, ObjectKey(id, filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
