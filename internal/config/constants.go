package config

const (
	// DefaultDatabasePath is the default path for the sqlite database
	DefaultDatabasePath = "./assessment-importer.db"

	// DefaultMaxImportFileSize caps a single uploaded package file (20 MB)
	DefaultMaxImportFileSize = 20 * 1024 * 1024

	// DefaultRetryAttempts is the total number of attempts for a transaction
	// that keeps failing with transient storage errors
	DefaultRetryAttempts = 3

	// Valid item score range for template-driven item types
	DefaultItemScoreMin = 0.1
	DefaultItemScoreMax = 100.0
)
