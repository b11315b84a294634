package gc

import (
	"errors"
	"testing"
)

func newUserDataWithGC(c *Collector, fn Finalizer) (*UserData, *Table) {
	mt := &Table{Header: Header{Tag: TagTable}, Hash: map[Value]Value{gcMetamethod: Finalizer(fn)}}
	c.NewObject(mt, 48)
	ud := &UserData{Header: Header{Tag: TagUserData}, Metatable: mt}
	c.NewObject(ud, 40)
	return ud, mt
}

func TestCheckFinalizerMovesObjectToFinObj(t *testing.T) {
	c := newTestCollector()
	ud, mt := newUserDataWithGC(c, func(Object) error { return nil })

	c.CheckFinalizer(ud, mt)

	if !ud.header().isFinalized() {
		t.Fatal("expected finalized bit set")
	}
	found := false
	for cur := c.state.finobj; cur != nil; cur = cur.header().Next {
		if cur == Object(ud) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected object linked into finobj")
	}
}

func TestCheckFinalizerNoopWithoutGCMetamethod(t *testing.T) {
	c := newTestCollector()
	mt := &Table{Header: Header{Tag: TagTable}, Hash: map[Value]Value{}}
	c.NewObject(mt, 48)
	ud := &UserData{Header: Header{Tag: TagUserData}, Metatable: mt}
	c.NewObject(ud, 40)

	c.CheckFinalizer(ud, mt)

	if ud.header().isFinalized() {
		t.Fatal("object without a __gc metamethod should not be marked finalized")
	}
}

func TestSeparateToBeFnzMovesUnreachableOnly(t *testing.T) {
	c := newTestCollector()
	ud1, mt1 := newUserDataWithGC(c, func(Object) error { return nil })
	ud2, mt2 := newUserDataWithGC(c, func(Object) error { return nil })
	c.CheckFinalizer(ud1, mt1)
	c.CheckFinalizer(ud2, mt2)

	ud1.header().makeWhite(c.state.otherWhite()) // unreachable
	ud2.header().makeBlack()                      // still reachable

	moved := c.separateToBeFnz(false)
	if moved != 1 {
		t.Fatalf("expected exactly 1 object moved to tobefnz, got %d", moved)
	}
	if c.state.tobefnz != Object(ud1) {
		t.Fatal("expected the unreachable object to be the one moved")
	}
}

func TestCallOneFinalizerRunsAndRestoresToAllGC(t *testing.T) {
	c := newTestCollector()
	called := false
	ud, mt := newUserDataWithGC(c, func(o Object) error { called = true; return nil })
	c.CheckFinalizer(ud, mt)
	ud.header().makeWhite(c.state.otherWhite())
	c.separateToBeFnz(false)

	c.callOneFinalizer()

	if !called {
		t.Fatal("expected finalizer function to run")
	}
	if ud.header().isFinalized() {
		t.Fatal("finalized bit should be cleared once the finalizer has run")
	}
	found := false
	for cur := c.state.allgc; cur != nil; cur = cur.header().Next {
		if cur == Object(ud) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected object restored to allgc after its finalizer ran")
	}
}

func TestInvokeFinalizerRecoversPanic(t *testing.T) {
	c := newTestCollector()
	ud := &UserData{Header: Header{Tag: TagUserData}}
	c.NewObject(ud, 40)

	err := c.invokeFinalizer(func(Object) error { panic("boom") }, ud)
	if err == nil {
		t.Fatal("expected a non-nil error recovered from the panicking finalizer")
	}
}

func TestWarnRoutesToWarnChannel(t *testing.T) {
	var got error
	ch := warnChannelFunc(func(tag string, err error) { got = err })
	c := newTestCollector(WithWarnChannel(ch))

	want := errors.New("finalizer exploded")
	c.warn(gcMetamethod, want)

	if got != want {
		t.Fatal("expected warn to route the error to the configured WarnChannel")
	}
}

type warnChannelFunc func(tag string, err error)

func (f warnChannelFunc) Warn(tag string, err error) { f(tag, err) }
