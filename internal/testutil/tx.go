package testutil

import (
	"context"
	"database/sql"
	"errors"

	"logiledger/internal/infrastructure/mysql"
)

// FakeTx stands in for *sql.Tx in service tests. Repository mocks never
// touch it, so its Querier methods are unreachable.
type FakeTx struct {
	Committed  bool
	RolledBack bool
	CommitErr  error
}

func (f *FakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errors.New("FakeTx does not execute SQL")
}

func (f *FakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("FakeTx does not execute SQL")
}

func (f *FakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *FakeTx) Commit() error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = true
	return nil
}

func (f *FakeTx) Rollback() error {
	if !f.Committed {
		f.RolledBack = true
	}
	return nil
}

// FakeTxManager hands out a fresh FakeTx per BeginTx and keeps them for
// assertions.
type FakeTxManager struct {
	BeginErr  error
	CommitErr error
	Txs       []*FakeTx
}

func (m *FakeTxManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	tx := &FakeTx{CommitErr: m.CommitErr}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

func (m *FakeTxManager) Last() *FakeTx {
	if len(m.Txs) == 0 {
		return nil
	}
	return m.Txs[len(m.Txs)-1]
}
