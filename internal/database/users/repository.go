// Package users provides database operations for importing accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	ok, err := repo.IsActiveImporter(ctx, importerID)
package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new enabled account.
func (r *Repository) CreateUser(username, email string) (*entities.User, error) {
	user := &entities.User{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsActiveImporter reports whether id resolves to an account that exists, is
// not soft-deleted and is not disabled.
func (r *Repository) IsActiveImporter(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var user entities.User
	err := r.db.WithContext(ctx).Select("id", "disabled").First(&user, id).Error
	if database.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !user.Disabled, nil
}

// SetDisabled enables or disables an account.
func (r *Repository) SetDisabled(id uint, disabled bool) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update("disabled", disabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
