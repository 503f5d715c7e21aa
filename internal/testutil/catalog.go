package testutil

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/irgate/internal/queryir"
)

// ErrCatalogDown is returned by FailingCatalog.
var ErrCatalogDown = errors.New("catalog connection refused")

var (
	_ queryir.Catalog = FailingCatalog{}
	_ queryir.Catalog = (*CountingCatalog)(nil)
)

// FailingCatalog fails every lookup with Err (ErrCatalogDown when nil).
type FailingCatalog struct {
	Err error
}

func (c FailingCatalog) err() error {
	if c.Err != nil {
		return c.Err
	}
	return ErrCatalogDown
}

func (c FailingCatalog) Tables(ctx context.Context) ([]string, error) { return nil, c.err() }

func (c FailingCatalog) TableExists(ctx context.Context, name string) (bool, error) {
	return false, c.err()
}

func (c FailingCatalog) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	return nil, c.err()
}

// CountingCatalog forwards to Inner and counts calls per method.
//
// Thread-safety: counters are atomic; safe for concurrent use when Inner is.
type CountingCatalog struct {
	Inner queryir.Catalog

	TablesCalls      atomic.Int64
	TableExistsCalls atomic.Int64
	ColumnsOfCalls   atomic.Int64
}

func (c *CountingCatalog) Tables(ctx context.Context) ([]string, error) {
	c.TablesCalls.Add(1)
	return c.Inner.Tables(ctx)
}

func (c *CountingCatalog) TableExists(ctx context.Context, name string) (bool, error) {
	c.TableExistsCalls.Add(1)
	return c.Inner.TableExists(ctx, name)
}

func (c *CountingCatalog) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	c.ColumnsOfCalls.Add(1)
	return c.Inner.ColumnsOf(ctx, table)
}
