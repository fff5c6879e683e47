package mysql

import (
	"context"
	"database/sql"
)

type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// TxManager begins transactions behind an interface so services can be
// exercised without a live database.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, TranslateError(err, "beginning transaction")
	}
	return tx, nil
}
