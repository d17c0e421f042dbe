package upload

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxSize is the canonical per-file upload limit shared by client and server.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// extensions maps accepted MIME types to the extension shown in validation messages.
var extensions = map[string]string{
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/tiff":      ".tiff",
}

// Rules is the pre-flight validation policy applied to every file before upload.
type Rules struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultRules returns the canonical policy: 10MB and PDF, text, JPEG, PNG, or TIFF content.
func DefaultRules() Rules {
	return Rules{
		MaxSize: DefaultMaxSize,
		AllowedTypes: []string{
			"application/pdf",
			"text/plain",
			"image/jpeg",
			"image/png",
			"image/tiff",
		},
	}
}

// Extensions lists the allowed types as a comma-separated list of file extensions.
// Types without a known extension are listed verbatim.
func (r Rules) Extensions() string {
	exts := make([]string, 0, len(r.AllowedTypes))
	for _, t := range r.AllowedTypes {
		if ext, ok := extensions[t]; ok {
			exts = append(exts, ext)
			continue
		}
		exts = append(exts, t)
	}
	return strings.Join(exts, ", ")
}

// Result reports whether a file passed validation and, if not, why.
type Result struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}

// Validate checks f against rules. It never fails: every outcome is a Result.
func Validate(f File, rules Rules) Result {
	if f.Size > rules.MaxSize {
		return Result{
			Error: fmt.Sprintf("File size must be less than %s", megabytes(rules.MaxSize)),
		}
	}

	if !slices.Contains(rules.AllowedTypes, f.Type) {
		return Result{
			Error: fmt.Sprintf("File type not allowed. Allowed types: %s", rules.Extensions()),
		}
	}

	return Result{IsValid: true}
}

func megabytes(n int64) string {
	mb := float64(n) / (1024 * 1024)
	return strconv.FormatFloat(mb, 'f', -1, 64) + "MB"
}
