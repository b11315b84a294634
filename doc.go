// Package gc implements the garbage collector core of an embedded
// dynamic-language runtime: a tri-color incremental/generational
// collector over a fixed set of heap object kinds (strings, tables,
// closures, prototypes, userdata, threads, upvalues).
//
// The collector owns mark, sweep, write-barrier, weak-table/ephemeron,
// and finalizer machinery. It does not own the interpreter, the
// parser/compiler, table internals, string interning, or thread stacks;
// those are external collaborators reached through the Host interfaces
// in host.go.
package gc
