package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Auditor keeps a verbatim copy of every upload that passed validation, so a
// stored package can always be traced back to the bytes it came from.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// Archive writes content under a random UUID4 name that keeps the upload's
// extension, and returns that name.
func (a *Auditor) Archive(fileName string, content []byte) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.New().String() + ext

	if err := os.WriteFile(filepath.Join(a.AuditDir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return name, nil
}

// Prune removes archived files last modified before olderThan and returns how
// many were removed. A missing archive directory is not an error.
func (a *Auditor) Prune(olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(a.AuditDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read archive directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, err
		}
		if !info.ModTime().Before(olderThan) {
			continue
		}
		if err := os.Remove(filepath.Join(a.AuditDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Ready reports whether the archive directory exists or can be created.
func (a *Auditor) Ready() error {
	return a.ensureAuditDir()
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}
