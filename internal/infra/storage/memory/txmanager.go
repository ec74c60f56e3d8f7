package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// TransactionManager сериализует транзакционные секции на одном мьютексе
// Отката нет: изменения внутри fn видны сразу
type TransactionManager struct {
	mu sync.Mutex
}

// NewTransactionManager создаёт менеджер транзакций для Store
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TransactionManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}
