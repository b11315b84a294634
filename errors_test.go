package gc

import (
	"context"
	"errors"
	"testing"
)

type flakyAllocator struct {
	fails int
	calls int
}

func (a *flakyAllocator) Allocate(size uintptr, tag Tag) (unsafePtr, error) {
	a.calls++
	if a.calls <= a.fails {
		return nil, errors.New("out of host memory")
	}
	return struct{}{}, nil
}

func (a *flakyAllocator) Reallocate(ptr unsafePtr, oldSize, newSize uintptr) (unsafePtr, error) {
	return struct{}{}, nil
}

func (a *flakyAllocator) Free(ptr unsafePtr, size uintptr) {}

func TestAllocateRetriesAfterEmergencyCollection(t *testing.T) {
	alloc := &flakyAllocator{fails: 1}
	c := newTestCollector(WithAllocator(alloc))
	setupRootedCollector(c)

	ptr, err := c.allocate(context.Background(), 64, TagTable)
	if err != nil {
		t.Fatalf("expected retry to succeed after emergency collection, got %v", err)
	}
	if ptr == nil {
		t.Fatal("expected a non-nil pointer on successful retry")
	}
	if alloc.calls != 2 {
		t.Fatalf("expected exactly 2 allocate calls (fail then retry), got %d", alloc.calls)
	}
}

func TestAllocateSurfacesOutOfMemoryAfterPersistentFailure(t *testing.T) {
	alloc := &flakyAllocator{fails: 1000}
	c := newTestCollector(WithAllocator(alloc))
	setupRootedCollector(c)

	var raised error
	ch := errChannelFunc(func(ctx context.Context, err error) { raised = err })
	WithErrorChannel(ch)(c)

	_, err := c.allocate(context.Background(), 64, TagTable)
	if err == nil {
		t.Fatal("expected a persistent allocation failure to surface an error")
	}
	var oom *ErrOutOfMemory
	if !errors.As(err, &oom) {
		t.Fatalf("expected *ErrOutOfMemory, got %T", err)
	}
	if raised == nil {
		t.Fatal("expected the error channel to be notified")
	}
}

type errChannelFunc func(ctx context.Context, err error)

func (f errChannelFunc) RaiseOutOfMemory(ctx context.Context, err error) { f(ctx, err) }
