package prices

import (
	"context"
	"errors"
)

// ErrNoCache is returned by a Cache that holds no price history yet.
var ErrNoCache = errors.New("no price cache")

// Cache persists a Table between sessions.
type Cache interface {
	Read(ctx context.Context) (*Table, error)
	Write(ctx context.Context, t *Table) error
}
