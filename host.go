package gc

import "context"

// Allocator is the host memory allocator trait (spec.md section 4.1).
// The collector never calls malloc/free directly; every byte it accounts
// for passes through this interface.
type Allocator interface {
	Allocate(size uintptr, tag Tag) (unsafePtr, error)
	Reallocate(ptr unsafePtr, oldSize, newSize uintptr) (unsafePtr, error)
	Free(ptr unsafePtr, size uintptr)
}

// unsafePtr is an opaque handle to host-allocated memory. The collector's
// Go-level objects are ordinary Go values; this is only used for the
// external byte-accounting contract (long-string and userdata payloads
// that the host may have allocated outside the Go heap).
type unsafePtr = any

// StringInterner is the trim-cache hook the collector calls at the end of
// every atomic phase (spec.md section 4.8 step 12). The collector does
// not implement interning itself.
type StringInterner interface {
	TrimCache()
}

// NopInterner is a StringInterner that does nothing; useful for embedders
// that intern strings some other way or not at all.
type NopInterner struct{}

func (NopInterner) TrimCache() {}

// ErrorChannel is the host's error-reporting contract for the one error
// the collector can raise synchronously: persistent out-of-memory. The
// call is documented as non-returning in spec.md section 4.1; embedders
// that want this to actually unwind the mutator should panic or call
// runtime.Goexit from within.
type ErrorChannel interface {
	RaiseOutOfMemory(ctx context.Context, err error)
}

// WarnChannel receives non-fatal diagnostics, principally finalizer
// errors (spec.md section 7, "FinalizerError").
type WarnChannel interface {
	Warn(tag string, err error)
}
