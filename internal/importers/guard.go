package importers

import (
	"context"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

// AccountChecker resolves importer identities.
type AccountChecker interface {
	IsActiveImporter(ctx context.Context, id uint) (bool, error)
}

// PackageStore is the storage the pipeline writes to.
type PackageStore interface {
	Exists(ctx context.Context, importerID uint, kind entities.ContentKind, originID string) (bool, error)
	CreateGraph(ctx context.Context, pkg *entities.Package) error
}

// Guard runs the pre-persistence checks: the importer must be an active
// account, then the package must not already exist for that importer.
type Guard struct {
	accounts AccountChecker
	packages PackageStore
}

func NewGuard(accounts AccountChecker, packages PackageStore) *Guard {
	return &Guard{accounts: accounts, packages: packages}
}

func (g *Guard) Check(ctx context.Context, importerID uint, kind entities.ContentKind, originID string) error {
	ok, err := g.accounts.IsActiveImporter(ctx, importerID)
	if err != nil {
		return newError(KindStorage, err, "could not verify importer %d", importerID)
	}
	if !ok {
		return newError(KindInvalidImporter, nil, "importer %d does not exist or is disabled", importerID)
	}

	exists, err := g.packages.Exists(ctx, importerID, kind, originID)
	if err != nil {
		return newError(KindStorage, err, "could not check for an existing %s %q", kind, originID)
	}
	if exists {
		return duplicateError(kind, originID)
	}
	return nil
}

func duplicateError(kind entities.ContentKind, originID string) *Error {
	return newError(KindDuplicate, nil, "%s %q has already been imported", kind, originID)
}
