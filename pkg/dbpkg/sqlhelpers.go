package dbpkg

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Setup sets up connection with database.
func Setup(driver, source string) (*sql.DB, error) {
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// RunTx executes fn inside a database transaction.
//
// The transaction is committed when fn returns nil and rolled back otherwise.
// The error returned by fn is returned unchanged.
func RunTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.Error().Err(rbErr).Msg("rollback failed")
		}

		return err
	}

	return tx.Commit()
}
