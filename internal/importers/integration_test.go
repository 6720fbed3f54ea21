package importers

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/database/packages"
	"github.com/mrlokans/assessment-importer/internal/database/users"
	"github.com/mrlokans/assessment-importer/internal/entities"
)

type sqliteEnv struct {
	db       *database.Database
	users    *users.Repository
	packages *packages.Repository
	pipeline *Pipeline
}

func setupSQLite(t *testing.T) *sqliteEnv {
	t.Helper()
	db, err := database.NewDatabase(database.Options{
		Driver:   config.DatabaseDriverSQLite,
		Path:     filepath.Join(t.TempDir(), "import.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	retry := database.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	env := &sqliteEnv{
		db:       db,
		users:    users.NewRepository(db.DB),
		packages: packages.NewRepository(db.DB, retry),
	}
	env.pipeline = NewPipeline(env.users, env.packages, Options{Clock: fixedClock})
	return env
}

func (e *sqliteEnv) createUser(t *testing.T, name string) uint {
	t.Helper()
	u, err := e.users.CreateUser(name, name+"@example.com")
	require.NoError(t, err)
	return u.ID
}

func (e *sqliteEnv) rowCounts(t *testing.T) map[string]int64 {
	t.Helper()
	counts := map[string]int64{}
	for _, table := range []string{"import_packages", "import_sections", "import_items", "import_checks", "import_settings"} {
		var n int64
		require.NoError(t, e.db.DB.Table(table).Count(&n).Error)
		counts[table] = n
	}
	return counts
}

func (e *sqliteEnv) importJSON(importerID uint, body string) (Result, error) {
	return e.pipeline.Import(context.Background(), Request{
		Kind:       entities.KindSpecializedTraining,
		FileName:   "midterm.json",
		Content:    strings.NewReader(body),
		ImporterID: importerID,
	})
}

func TestIntegration_MidtermScenario(t *testing.T) {
	env := setupSQLite(t)
	alice := env.createUser(t, "alice")

	res, err := env.importJSON(alice, midtermJSON)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, entities.GraphCounts{Modules: 1, Items: 1, Checks: 1, Settings: 1}, res.Counts)

	stored, err := env.packages.CountGraph(context.Background(), res.PackageID)
	require.NoError(t, err)
	assert.Equal(t, res.Counts, stored)

	pkg, err := env.packages.GetForImporter(context.Background(), res.PackageID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Midterm", pkg.Name)
	require.Len(t, pkg.Sections, 1)
	require.Len(t, pkg.Sections[0].Items, 1)
	require.Len(t, pkg.Sections[0].Items[0].Checks, 1)
	require.Len(t, pkg.Sections[0].Items[0].Checks[0].Settings, 1)
	assert.Equal(t, "5", pkg.Sections[0].Items[0].Checks[0].Settings[0].Value)

	before := env.rowCounts(t)

	_, err = env.importJSON(alice, midtermJSON)
	require.Error(t, err)
	assert.Equal(t, KindDuplicate, KindOf(err))
	assert.Equal(t, before, env.rowCounts(t))

	res, err = env.importJSON(alice, midtermWith("ext-2", 0))
	require.Error(t, err)
	assert.Equal(t, KindValidation, res.ErrorKind)
	assert.Contains(t, err.Error(), "totalScore")
	assert.Equal(t, before, env.rowCounts(t))
}

func TestIntegration_DuplicateScopeIsPerImporter(t *testing.T) {
	env := setupSQLite(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	first, err := env.importJSON(alice, midtermJSON)
	require.NoError(t, err)
	second, err := env.importJSON(bob, midtermJSON)
	require.NoError(t, err)
	assert.NotEqual(t, first.PackageID, second.PackageID)

	_, err = env.packages.GetForImporter(context.Background(), first.PackageID, bob)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIntegration_InvalidImporterWritesNothing(t *testing.T) {
	env := setupSQLite(t)
	alice := env.createUser(t, "alice")
	require.NoError(t, env.users.SetDisabled(alice, true))
	before := env.rowCounts(t)

	for _, id := range []uint{alice, 404, 0} {
		res, err := env.importJSON(id, midtermJSON)
		require.Error(t, err)
		assert.Equal(t, KindInvalidImporter, res.ErrorKind)
	}
	assert.Equal(t, before, env.rowCounts(t))
}

func TestIntegration_TransientFailureRollsBackWholeGraph(t *testing.T) {
	env := setupSQLite(t)
	alice := env.createUser(t, "alice")

	// Fail every insert into the checks table while the counter is positive.
	var failures atomic.Int32
	err := env.db.DB.Callback().Create().Before("gorm:create").Register("test:fail_checks", func(tx *gorm.DB) {
		if tx.Statement.Table == "import_checks" && failures.Load() > 0 {
			failures.Add(-1)
			tx.AddError(database.ErrTransient)
		}
	})
	require.NoError(t, err)

	failures.Store(100)
	res, err := env.importJSON(alice, midtermJSON)
	require.Error(t, err)
	assert.Equal(t, KindStorage, res.ErrorKind)
	assert.ErrorIs(t, err, database.ErrTransient)
	for table, n := range env.rowCounts(t) {
		assert.Zero(t, n, table)
	}

	failures.Store(1)
	res, err = env.importJSON(alice, midtermJSON)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(0), failures.Load())

	stored, err := env.packages.CountGraph(context.Background(), res.PackageID)
	require.NoError(t, err)
	assert.Equal(t, res.Counts, stored)
	assert.Equal(t, int64(1), env.rowCounts(t)["import_packages"])
}

func TestIntegration_XMLTraining(t *testing.T) {
	env := setupSQLite(t)
	alice := env.createUser(t, "alice")

	res, err := env.pipeline.Import(context.Background(), Request{
		Kind:       entities.KindSpecializedTraining,
		FileName:   "formulas.xml",
		Content:    strings.NewReader(trainingXML),
		ImporterID: alice,
	})
	require.NoError(t, err)

	pkg, err := env.packages.GetForImporter(context.Background(), res.PackageID, alice)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportFormatXML, pkg.ImportFormat)
	assert.Equal(t, entities.PackageStatusPublished, pkg.Status)
	require.Len(t, pkg.Sections, 1)
	assert.False(t, pkg.Sections[0].Enabled)
	require.Len(t, pkg.Items, 1)
	settings := pkg.Items[0].Checks[0].Settings
	require.Len(t, settings, 2)
	assert.Equal(t, "cell", settings[0].Name)
	assert.Equal(t, "range", settings[1].Name)
}
