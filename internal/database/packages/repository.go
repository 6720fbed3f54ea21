// Package packages provides database operations for imported package graphs.
//
// A package graph is Package → Section → Item → Check → Setting. Graphs are
// written once, atomically, and only ever read or deleted afterwards.
//
// # Usage
//
//	repo := packages.NewRepository(db, database.DefaultRetryPolicy(), practiceRepo)
//	err := repo.CreateGraph(ctx, pkg)
package packages

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/entities"
)

// DependentCleaner removes records outside the package graph that reference a
// package by id. It runs inside the delete transaction, before any graph row
// is removed.
type DependentCleaner interface {
	DeleteForPackage(tx *gorm.DB, packageID uint) (int64, error)
}

// Repository handles imported package graphs.
type Repository struct {
	db       *gorm.DB
	retry    database.RetryPolicy
	cleaners []DependentCleaner
}

// NewRepository creates a new packages repository.
func NewRepository(db *gorm.DB, retry database.RetryPolicy, cleaners ...DependentCleaner) *Repository {
	return &Repository{db: db, retry: retry, cleaners: cleaners}
}

// Exists reports whether the importer already owns a package of the given
// kind with this origin id.
func (r *Repository) Exists(ctx context.Context, importerID uint, kind entities.ContentKind, originID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Package{}).
		Where("importer_id = ? AND kind = ? AND origin_id = ?", importerID, kind, originID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateGraph inserts the package and everything beneath it in a single
// transaction. A transient failure rolls back and re-runs the whole
// transaction under the retry policy; ids assigned by a failed attempt are
// cleared first.
func (r *Repository) CreateGraph(ctx context.Context, pkg *entities.Package) error {
	return r.retry.Do(ctx, func() error {
		resetGraph(pkg)
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return insertGraph(tx, pkg)
		})
	})
}

func insertGraph(tx *gorm.DB, pkg *entities.Package) error {
	if err := tx.Omit(clause.Associations).Create(pkg).Error; err != nil {
		return fmt.Errorf("insert package: %w", err)
	}

	for i := range pkg.Sections {
		section := &pkg.Sections[i]
		section.PackageID = pkg.ID
		if err := tx.Omit("Items").Create(section).Error; err != nil {
			return fmt.Errorf("insert section %q: %w", section.Name, err)
		}
		if len(section.Items) == 0 {
			continue
		}
		sectionID := section.ID
		for j := range section.Items {
			section.Items[j].PackageID = pkg.ID
			section.Items[j].SectionID = &sectionID
		}
		// Checks and their settings follow through the has-many associations.
		if err := tx.Create(&section.Items).Error; err != nil {
			return fmt.Errorf("insert items of section %q: %w", section.Name, err)
		}
	}

	if len(pkg.Items) > 0 {
		for i := range pkg.Items {
			pkg.Items[i].PackageID = pkg.ID
			pkg.Items[i].SectionID = nil
		}
		if err := tx.Create(&pkg.Items).Error; err != nil {
			return fmt.Errorf("insert package items: %w", err)
		}
	}
	return nil
}

func resetGraph(pkg *entities.Package) {
	pkg.ID = 0
	for i := range pkg.Sections {
		pkg.Sections[i].ID = 0
		pkg.Sections[i].PackageID = 0
		for j := range pkg.Sections[i].Items {
			resetItem(&pkg.Sections[i].Items[j])
		}
	}
	for i := range pkg.Items {
		resetItem(&pkg.Items[i])
	}
}

func resetItem(item *entities.Item) {
	item.ID = 0
	item.PackageID = 0
	item.SectionID = nil
	for i := range item.Checks {
		check := &item.Checks[i]
		check.ID = 0
		check.ItemID = 0
		for j := range check.Settings {
			check.Settings[j].ID = 0
			check.Settings[j].CheckID = 0
		}
	}
}

// ListForImporter returns one page of the importer's packages, newest first,
// without their children. An empty kind lists every kind.
func (r *Repository) ListForImporter(ctx context.Context, importerID uint, kind entities.ContentKind, limit, offset int) ([]entities.Package, int64, error) {
	var pkgs []entities.Package
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Package{}).Where("importer_id = ?", importerID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("imported_at DESC, id DESC").Limit(limit).Offset(offset).Find(&pkgs).Error
	return pkgs, total, err
}

// GetForImporter loads one package with its full graph. Package.Items holds
// every item of the package, sectioned or not; Section.Items holds the items
// of that section. Returns gorm.ErrRecordNotFound when the package does not
// exist or belongs to someone else.
func (r *Repository) GetForImporter(ctx context.Context, id, importerID uint) (*entities.Package, error) {
	var pkg entities.Package
	err := r.db.WithContext(ctx).
		Preload("Sections", bySortOrder).
		Preload("Sections.Items", bySortOrder).
		Preload("Sections.Items.Checks", bySortOrder).
		Preload("Sections.Items.Checks.Settings", bySortOrder).
		Preload("Items", bySortOrder).
		Preload("Items.Checks", bySortOrder).
		Preload("Items.Checks.Settings", bySortOrder).
		Where("id = ? AND importer_id = ?", id, importerID).
		First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func bySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

// CountGraph counts the stored rows beneath a package.
func (r *Repository) CountGraph(ctx context.Context, packageID uint) (entities.GraphCounts, error) {
	var counts entities.GraphCounts
	db := r.db.WithContext(ctx)

	type flavorCount struct {
		Flavor entities.SectionFlavor
		Total  int
	}
	var flavors []flavorCount
	if err := db.Model(&entities.Section{}).
		Select("flavor, COUNT(*) AS total").
		Where("package_id = ?", packageID).
		Group("flavor").
		Scan(&flavors).Error; err != nil {
		return counts, err
	}
	for _, f := range flavors {
		switch f.Flavor {
		case entities.SectionFlavorSubject:
			counts.Subjects = f.Total
		case entities.SectionFlavorModule:
			counts.Modules = f.Total
		}
	}

	var items, checks, settings int64
	itemIDs := db.Model(&entities.Item{}).Select("id").Where("package_id = ?", packageID)
	checkIDs := db.Model(&entities.Check{}).Select("id").Where("item_id IN (?)", itemIDs)

	if err := db.Model(&entities.Item{}).Where("package_id = ?", packageID).Count(&items).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&entities.Check{}).Where("item_id IN (?)", itemIDs).Count(&checks).Error; err != nil {
		return counts, err
	}
	if err := db.Model(&entities.Setting{}).Where("check_id IN (?)", checkIDs).Count(&settings).Error; err != nil {
		return counts, err
	}
	counts.Items = int(items)
	counts.Checks = int(checks)
	counts.Settings = int(settings)
	return counts, nil
}

// DeleteForImporter removes a package, its whole graph and every dependent
// record registered through a DependentCleaner, in one transaction. A package
// owned by another importer is reported as gorm.ErrRecordNotFound.
func (r *Repository) DeleteForImporter(ctx context.Context, id, importerID uint) (*entities.Package, error) {
	var deleted *entities.Package
	err := r.retry.Do(ctx, func() error {
		deleted = nil
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var pkg entities.Package
			if err := tx.Where("id = ? AND importer_id = ?", id, importerID).First(&pkg).Error; err != nil {
				return err
			}

			for _, cleaner := range r.cleaners {
				if _, err := cleaner.DeleteForPackage(tx, pkg.ID); err != nil {
					return fmt.Errorf("delete dependent records: %w", err)
				}
			}

			var itemIDs []uint
			if err := tx.Model(&entities.Item{}).Where("package_id = ?", pkg.ID).Pluck("id", &itemIDs).Error; err != nil {
				return err
			}
			var checkIDs []uint
			if len(itemIDs) > 0 {
				if err := tx.Model(&entities.Check{}).Where("item_id IN ?", itemIDs).Pluck("id", &checkIDs).Error; err != nil {
					return err
				}
			}

			if len(checkIDs) > 0 {
				if err := tx.Where("check_id IN ?", checkIDs).Delete(&entities.Setting{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", checkIDs).Delete(&entities.Check{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("package_id = ?", pkg.ID).Delete(&entities.Item{}).Error; err != nil {
				return err
			}
			if err := tx.Where("package_id = ?", pkg.ID).Delete(&entities.Section{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entities.Package{}, pkg.ID).Error; err != nil {
				return err
			}
			deleted = &pkg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// CountByKind returns how many packages the importer owns per content kind.
func (r *Repository) CountByKind(ctx context.Context, importerID uint) (map[entities.ContentKind]int64, error) {
	type kindCount struct {
		Kind  entities.ContentKind
		Total int64
	}
	var rows []kindCount
	err := r.db.WithContext(ctx).Model(&entities.Package{}).
		Select("kind, COUNT(*) AS total").
		Where("importer_id = ?", importerID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[entities.ContentKind]int64, len(entities.AllContentKinds))
	for _, k := range entities.AllContentKinds {
		result[k] = 0
	}
	for _, row := range rows {
		result[row.Kind] = row.Total
	}
	return result, nil
}
