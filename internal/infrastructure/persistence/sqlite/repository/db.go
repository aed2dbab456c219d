package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

// dbFromContext prefers the transaction handle placed in the context by the
// unit of work, falling back to the repository's own connection.
func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// nowRFC3339 keeps nanosecond precision so created_at ordering is a total
// order for queue pickup.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
