package importers

import (
	"io"
	"time"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

// Request is one import submission. ImporterID comes from the caller's
// authentication layer.
type Request struct {
	Kind       entities.ContentKind
	FileName   string
	Content    io.Reader
	ImporterID uint
}

// Result is what an import reports back, successful or not.
type Result struct {
	Success     bool                 `json:"success"`
	PackageID   uint                 `json:"package_id,omitempty"`
	PackageName string               `json:"package_name,omitempty"`
	OriginID    string               `json:"origin_id,omitempty"`
	Kind        entities.ContentKind `json:"kind"`
	Counts      entities.GraphCounts `json:"counts"`
	FileName    string               `json:"file_name,omitempty"`
	FileSize    int64                `json:"file_size"`
	ArchiveID   string               `json:"archive_id,omitempty"`
	Elapsed     time.Duration        `json:"-"`
	ElapsedMs   int64                `json:"elapsed_ms"`

	ErrorKind  ErrorKind   `json:"error_kind,omitempty"`
	Error      string      `json:"error,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
}

func (r *Result) fail(err *Error) {
	r.Success = false
	r.ErrorKind = err.Kind
	r.Error = err.Error()
	r.Violations = err.Violations
}
