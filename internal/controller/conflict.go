package controller

import (
	"context"
	"errors"

	"github.com/balkashynov/tock/internal/guard"
)

// Resolution is the caller's answer to a version conflict
type Resolution int

const (
	// Refresh discards local changes and reloads from the store
	Refresh Resolution = iota
	// Retry reloads, then applies the operation once more on fresh state
	Retry
	// KeepLocal leaves the local tree as it is
	KeepLocal
)

func (r Resolution) String() string {
	switch r {
	case Retry:
		return "retry"
	case KeepLocal:
		return "keep-local"
	default:
		return "refresh"
	}
}

// guarded runs op and applies the conflict policy to its outcome. A
// conflict is returned to the caller unless a retry succeeded.
func (c *Controller) guarded(ctx context.Context, id string, op func(context.Context) error) error {
	err := c.settle(id, op(ctx))
	ce, ok := guard.AsConflict(err)
	if !ok {
		return err
	}

	res := Refresh
	if c.opts.OnConflict != nil {
		res = c.opts.OnConflict(ce)
	}
	c.logger.Printf("[controller] %v; resolving with %s", ce, res)

	switch res {
	case KeepLocal:
		return err
	case Retry:
		if lerr := c.Load(ctx); lerr != nil {
			return errors.Join(err, lerr)
		}
		err = c.settle(id, op(ctx))
		if guard.IsConflict(err) {
			if lerr := c.Load(ctx); lerr != nil {
				return errors.Join(err, lerr)
			}
		}
		return err
	default:
		if lerr := c.Load(ctx); lerr != nil {
			return errors.Join(err, lerr)
		}
		return err
	}
}
