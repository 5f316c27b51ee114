package database

import (
	"context"
	"errors"
	"time"

	"github.com/communitylink/membership-api/internal/shared/logger"
	"gorm.io/gorm"
)

// slowTransaction is the duration above which a committed transaction is logged
const slowTransaction = 500 * time.Millisecond

// WithTransaction runs fn in a transaction bound to ctx. fn's error rolls back
// and is returned unchanged, so callers can still match domain sentinels.
//
//	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
//	    return directory.Create(ctx, tx, member)
//	})
//
// Identity or payment calls must stay outside fn: they would hold the
// connection while waiting on a remote system.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	if fn == nil {
		return errors.New("database: transaction function is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	err := db.WithContext(ctx).Transaction(fn)

	elapsed := time.Since(start)
	switch {
	case err != nil:
		logger.FromContext(ctx).Debug("트랜잭션 롤백", "elapsed", elapsed.String(), "error", err)
	case elapsed > slowTransaction:
		logger.FromContext(ctx).Warn("느린 트랜잭션", "elapsed", elapsed.String())
	}
	return err
}
