package services

import (
	"context"
	"errors"
	"fmt"

	txContext "opsflow/internal/context"
	"opsflow/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var ErrTransactionPanic = errors.New("panic during transaction")

type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute runs fn in one transaction and commits when it returns nil. A ctx that already
// carries a transaction joins it, and the outermost call owns commit and rollback.
//
// The error fn returns is kept intact even when the rollback also fails, so sentinels such
// as ErrNotFound still reach the HTTP layer.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	if tx, ok := txContext.GetTransaction(ctx); ok {
		return fn(ctx, tx)
	}

	log := ts.log.TraceFromContext(ctx).Function("Execute")

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return log.Err("failed to begin transaction", tx.Error)
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("rollback after panic failed", rollbackErr, "panic", r)
			panic(r)
		}
		err = fmt.Errorf("%w: %v", ErrTransactionPanic, r)
		log.Er("transaction rolled back after panic", err)
	}()

	if err = fn(txContext.WithTransaction(ctx, tx), tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("rollback failed", rollbackErr, "cause", err)
			return errors.Join(err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return log.Err("failed to commit transaction", err)
	}

	return nil
}
