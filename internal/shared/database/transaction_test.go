package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/shared/database"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithTransaction_RollsBackAndKeepsError(t *testing.T) {
	db := testutil.NewTestDB(t)
	sentinel := errors.New("stop")

	// When: fn writes and then fails
	err := database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		account := &model.IdentityAccount{ID: "acc-1", Email: "jane@example.com", Password: "x", Groups: "member"}
		require.NoError(t, tx.Create(account).Error)
		return sentinel
	})

	// Then: The error is returned as-is and nothing was written
	assert.ErrorIs(t, err, sentinel)
	var count int64
	require.NoError(t, db.Model(&model.IdentityAccount{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTransaction_NilFunction(t *testing.T) {
	db := testutil.NewTestDB(t)
	assert.Error(t, database.WithTransaction(context.Background(), db, nil))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, database.IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, database.IsDuplicateKey(errors.New("ORA-00001: unique constraint violated")))
	assert.False(t, database.IsDuplicateKey(errors.New("connection refused")))
	assert.False(t, database.IsDuplicateKey(nil))
}
