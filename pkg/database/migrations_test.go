//go:build integration

package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/database"
	"github.com/ekaya-inc/ekaya-campus/pkg/testhelpers"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	storeDB := testhelpers.GetStoreDB(t)

	// GetStoreDB already migrated; a second run must be a no-op.
	require.NoError(t, database.RunMigrations(storeDB.ConnStr, zap.NewNop()))

	status, err := database.GetMigrationStatus(storeDB.ConnStr, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)
	assert.False(t, status.Pending)
}

func TestNewConnection_BadURL(t *testing.T) {
	_, err := database.NewConnection(t.Context(), &database.Config{URL: "::not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}
