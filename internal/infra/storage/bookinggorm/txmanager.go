package bookinggorm

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type txKey struct{}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// TransactionManager выполняет функции в транзакции GORM, передавая её через контекст
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager создаёт менеджер транзакций
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, nil, fn)
}

// DoSerializable на SQLite использует уровень по умолчанию: база и так сериализует запись
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var opts *sql.TxOptions
	if m.db.Dialector.Name() == DialectPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return m.run(ctx, opts, fn)
}

func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	var opts *sql.TxOptions
	if m.db.Dialector.Name() == DialectPostgres {
		opts = &sql.TxOptions{ReadOnly: true}
	}
	return m.run(ctx, opts, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	txOpts := []*sql.TxOptions{}
	if opts != nil {
		txOpts = append(txOpts, opts)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	}, txOpts...)
}
