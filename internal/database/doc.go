// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── errors.go        # Driver error classification (transient, unique violation)
//	├── retry.go         # Retry policy for transactions failing transiently
//	├── packages/        # Imported package graphs: create, list, detail, delete
//	├── practice/        # Practice sessions derived from imported packages
//	├── audit/           # Audit trail of imports and deletions
//	└── users/           # Importing accounts
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(database.Options{Path: "./app.db"})
//
//	practiceRepo := practice.NewRepository(db.DB)
//	packagesRepo := packages.NewRepository(db.DB, database.DefaultRetryPolicy(), practiceRepo)
//	usersRepo := users.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - packages.Repository: implements importers.PackageStore and services.PackageStore
//   - users.Repository: implements importers.AccountChecker
//   - practice.Repository: implements packages.DependentCleaner
//   - audit.Repository: backs audit.Service
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
