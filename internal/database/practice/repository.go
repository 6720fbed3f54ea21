// Package practice provides database operations for practice sessions taken
// against imported packages.
package practice

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, session *entities.PracticeSession) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

// ListForPackage returns the sessions recorded against a package, newest first.
func (r *Repository) ListForPackage(ctx context.Context, packageID uint) ([]entities.PracticeSession, error) {
	var sessions []entities.PracticeSession
	err := r.db.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("started_at DESC, id DESC").
		Find(&sessions).Error
	return sessions, err
}

// DeleteForPackage removes every session of a package using the caller's
// transaction.
func (r *Repository) DeleteForPackage(tx *gorm.DB, packageID uint) (int64, error) {
	result := tx.Where("package_id = ?", packageID).Delete(&entities.PracticeSession{})
	return result.RowsAffected, result.Error
}
