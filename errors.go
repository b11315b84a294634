package gc

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrBadMode is returned by ChangeMode only in the sense that spec.md
// section 7 documents it; in practice ChangeMode has no invalid input (it
// takes a Mode, not an arbitrary value), so this exists for embedders that
// parse a mode from configuration and want a sentinel to compare against.
var ErrBadMode = errors.New("gc: unsupported collector mode")

func zapPhase(p Phase) zap.Field { return zap.String("phase", p.String()) }

func zapField(key, value string) zap.Field { return zap.String(key, value) }

// warn routes a non-fatal diagnostic (principally finalizer errors,
// spec.md section 7) to the host's WarnChannel if one was configured,
// falling back to the structured logger.
func (c *Collector) warn(tag string, err error) {
	if c.warnCh != nil {
		c.warnCh.Warn(tag, err)
		return
	}
	c.log.Warn("gc warning", zap.String("tag", tag), zap.Error(err))
}

// allocate wraps the host Allocator, applying spec.md section 7's
// OutOfMemory policy: on failure, run one emergency full collection and
// retry; if that also fails, surface to the host's ErrorChannel. Multiple
// concurrent call sites hitting OOM at once are coalesced onto a single
// emergency cycle via singleflight.
func (c *Collector) allocate(ctx context.Context, size uintptr, tag Tag) (any, error) {
	ptr, err := c.allocator.Allocate(size, tag)
	if err == nil {
		return ptr, nil
	}

	_, sfErr, _ := c.emergencyGroup.Do("emergency-full", func() (any, error) {
		c.log.Warn("allocation failed, running emergency collection", zap.Uintptr("size", size), zap.Stringer("tag", tag))
		c.Full(true)
		return nil, nil
	})
	if sfErr != nil {
		return nil, sfErr
	}

	ptr, err = c.allocator.Allocate(size, tag)
	if err == nil {
		return ptr, nil
	}

	oomErr := &ErrOutOfMemory{Size: size, Tag: tag}
	if c.errCh != nil {
		c.errCh.RaiseOutOfMemory(ctx, oomErr)
	}
	return nil, oomErr
}
