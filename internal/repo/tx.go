package repo

import "context"

// Transactor runs fn as one unit of work. Repositories called with the ctx
// handed to fn take part in the same transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic is false when the store runs fn without a real transaction, in
	// which case a failure can leave earlier writes behind.
	Atomic() bool
}
