package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrInvalidKind     = errors.New("unsupported content kind")
)

// PackagePage is one page of an importer's packages.
type PackagePage struct {
	Packages []entities.Package `json:"packages"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// PackageDetail is a package with its full graph and stored counts.
type PackageDetail struct {
	Package *entities.Package    `json:"package"`
	Counts  entities.GraphCounts `json:"counts"`
}

// Stats summarizes what an importer has stored.
type Stats struct {
	ByKind map[entities.ContentKind]int64 `json:"by_kind"`
	Total  int64                          `json:"total"`
}

// PackageService answers queries about imported packages and removes them.
// Every operation is scoped to one importer; packages of other importers
// behave as if they did not exist.
type PackageService struct {
	store    PackageStore
	recorder DeleteRecorder
	log      *logger.Logger
}

func NewPackageService(store PackageStore, recorder DeleteRecorder, log *logger.Logger) *PackageService {
	return &PackageService{store: store, recorder: recorder, log: logger.OrNop(log)}
}

// List returns one page of packages, newest first. limit is clamped to
// [1, MaxPageSize]; zero means DefaultPageSize.
func (s *PackageService) List(ctx context.Context, importerID uint, kind entities.ContentKind, limit, offset int) (*PackagePage, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	pkgs, total, err := s.store.ListForImporter(ctx, importerID, kind, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	if pkgs == nil {
		pkgs = []entities.Package{}
	}
	return &PackagePage{Packages: pkgs, Total: total, Limit: limit, Offset: offset}, nil
}

// Get loads a package with everything beneath it.
func (s *PackageService) Get(ctx context.Context, id, importerID uint) (*PackageDetail, error) {
	pkg, err := s.store.GetForImporter(ctx, id, importerID)
	if database.IsNotFound(err) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load package %d: %w", id, err)
	}

	counts, err := s.store.CountGraph(ctx, pkg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count package %d: %w", id, err)
	}
	return &PackageDetail{Package: pkg, Counts: counts}, nil
}

// Delete removes a package, its graph and its practice sessions. The counts
// of the removed graph are returned for reporting.
func (s *PackageService) Delete(ctx context.Context, id, importerID uint) (entities.GraphCounts, error) {
	// Counted up front; discarded when the package turns out not to be the
	// importer's.
	counts, err := s.store.CountGraph(ctx, id)
	if err != nil {
		return entities.GraphCounts{}, fmt.Errorf("failed to count package %d: %w", id, err)
	}

	pkg, err := s.store.DeleteForImporter(ctx, id, importerID)
	if database.IsNotFound(err) {
		return entities.GraphCounts{}, ErrPackageNotFound
	}
	if err != nil {
		return entities.GraphCounts{}, fmt.Errorf("failed to delete package %d: %w", id, err)
	}

	s.log.Info("package deleted", "package_id", pkg.ID, "importer_id", importerID, "kind", pkg.Kind, "origin_id", pkg.OriginID)
	if s.recorder != nil {
		s.recorder.LogDelete(importerID, pkg, counts)
	}
	return counts, nil
}

// Stats returns package counts per kind.
func (s *PackageService) Stats(ctx context.Context, importerID uint) (*Stats, error) {
	byKind, err := s.store.CountByKind(ctx, importerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count packages: %w", err)
	}
	stats := &Stats{ByKind: byKind}
	for _, n := range byKind {
		stats.Total += n
	}
	return stats, nil
}
