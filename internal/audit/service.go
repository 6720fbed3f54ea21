package audit

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/assessment-importer/internal/database/audit"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// coder is implemented by errors that carry a machine-readable kind.
type coder interface {
	Code() string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	log     *logger.Logger
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: logger.OrNop(log)}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			s.log.Error("failed to log audit event", "action", event.Action, "error", err)
		}
	}()
}

// Wait blocks until every event queued by LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records the outcome of one import.
func (s *Service) LogImport(userID uint, kind entities.ContentKind, description string, packageID uint, counts entities.GraphCounts, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      string(kind) + "_import",
		Description: truncate(description, 500),
		EntityType:  "package",
		Status:      entities.AuditStatusSuccess,
	}
	if packageID > 0 {
		event.EntityID = &packageID
	}

	if mdBytes, e := json.Marshal(counts); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
		var c coder
		if errors.As(err, &c) {
			event.ErrorKind = c.Code()
		}
	}

	s.LogAsync(event)
}

// LogDelete records the removal of a package and everything beneath it.
func (s *Service) LogDelete(userID uint, pkg *entities.Package, counts entities.GraphCounts) {
	id := pkg.ID
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      "package_delete",
		Description: truncate("Deleted "+string(pkg.Kind)+": "+pkg.Name, 500),
		EntityType:  "package",
		EntityID:    &id,
		Status:      entities.AuditStatusSuccess,
	}
	metadata := map[string]any{
		"kind":      pkg.Kind,
		"origin_id": pkg.OriginID,
		"counts":    counts,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	s.LogAsync(event)
}

// LogCleanup records a retention run. It is written synchronously; cleanup
// runs in a background job already.
func (s *Service) LogCleanup(deleted int64, retention time.Duration, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCleanup,
		Action:      "audit_cleanup",
		Description: "Removed " + strconv.FormatInt(deleted, 10) + " audit events older than " + retention.String(),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	if logErr := s.repo.LogEvent(event); logErr != nil {
		s.log.Error("failed to log audit cleanup", "error", logErr)
	}
}

// ListEvents retrieves paginated audit events.
func (s *Service) ListEvents(filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens s to at most maxLen characters, never splitting a
// multi-byte character.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
