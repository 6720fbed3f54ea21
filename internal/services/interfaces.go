package services

import (
	"context"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

// PackageReader provides read-only access to an importer's packages.
type PackageReader interface {
	ListForImporter(ctx context.Context, importerID uint, kind entities.ContentKind, limit, offset int) ([]entities.Package, int64, error)
	GetForImporter(ctx context.Context, id, importerID uint) (*entities.Package, error)
	CountGraph(ctx context.Context, packageID uint) (entities.GraphCounts, error)
	CountByKind(ctx context.Context, importerID uint) (map[entities.ContentKind]int64, error)
}

// PackageStore adds removal to PackageReader.
type PackageStore interface {
	PackageReader
	DeleteForImporter(ctx context.Context, id, importerID uint) (*entities.Package, error)
}

// DeleteRecorder keeps an audit trail of deletions.
type DeleteRecorder interface {
	LogDelete(userID uint, pkg *entities.Package, counts entities.GraphCounts)
}
