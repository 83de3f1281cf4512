package qp

import "context"

// IdentifierBag maps a platform name to the identifier that platform
// assigned to one remote entity.
type IdentifierBag map[string]string

// IdentifierStore is the durable cache behind the pull service. Put must be
// idempotent: inserting an already-present key is a no-op, never a failure.
type IdentifierStore interface {
	Get(ctx context.Context, entity Entity, qpID int64) (IdentifierBag, bool, error)
	Put(ctx context.Context, entity Entity, qpID int64, bag IdentifierBag) error
}
