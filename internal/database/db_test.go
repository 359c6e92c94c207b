// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpin/backend/internal/database"
	"github.com/postpin/backend/internal/models"
)

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	require.NoError(t, database.Close(db))
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = database.Close(db)
	}()
}

func TestOpen_FileDatabaseCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/subdir/test.db"

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = database.Close(db)
	}()

	require.NoError(t, database.Migrate(db, models.AllModels()...))

	var count int64
	err = db.Raw("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'").Scan(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = database.Close(db)
	}()

	require.NoError(t, database.Migrate(db, models.AllModels()...))

	for _, table := range []string{"users", "verification_codes", "points_transactions", "points_cost_rules", "recharge_plans", "payment_orders"} {
		var count int64
		err = db.Raw("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count).Error
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "table %s should exist", table)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = database.Close(db)
	}()

	require.NoError(t, database.Migrate(db, models.AllModels()...))

	require.NoError(t, database.Seed(db))
	require.NoError(t, database.Seed(db))

	var ruleCount, planCount int64
	require.NoError(t, db.Model(&models.PointsCostRule{}).Count(&ruleCount).Error)
	require.NoError(t, db.Model(&models.RechargePlan{}).Count(&planCount).Error)
	assert.Equal(t, int64(5), ruleCount)
	assert.Equal(t, int64(3), planCount)
}

func TestOpen_PragmasApplied(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = database.Close(db)
	}()

	var journalMode string
	err = db.Raw("PRAGMA journal_mode").Scan(&journalMode).Error
	require.NoError(t, err)
	// In memory mode, WAL might not be applied, but this shouldn't error
	assert.NotEmpty(t, journalMode)

	var synchronous int
	err = db.Raw("PRAGMA synchronous").Scan(&synchronous).Error
	require.NoError(t, err)
	assert.NotZero(t, synchronous)
}
