package gc

import "testing"

func TestReallyMarkStringGoesStraightToBlack(t *testing.T) {
	c := newTestCollector()
	s := newShortString(c, "hello")
	c.reallyMark(s)
	if !s.header().isBlack() {
		t.Fatal("short string should be marked black immediately, no gray step needed")
	}
}

func TestReallyMarkTableGoesGray(t *testing.T) {
	c := newTestCollector()
	tbl := newTable(c)
	c.reallyMark(tbl)
	if !tbl.header().isGray() {
		t.Fatal("table should be linked gray, not blackened directly")
	}
	if c.state.gray != Object(tbl) {
		t.Fatal("table should be head of the gray list after reallyMark")
	}
}

func TestPropagateOneBlackensAndTraversesStrongTable(t *testing.T) {
	c := newTestCollector()
	child := newShortString(c, "child")
	parent := newTable(c)
	parent.Hash["k"] = child

	c.reallyMark(parent)
	c.propagateOne()

	if !parent.header().isBlack() {
		t.Fatal("parent should be black after propagateOne")
	}
	if !child.header().isBlack() {
		t.Fatal("strong table traversal should have marked its value black")
	}
}

func TestTraverseStrongHashDropsNilValuedEntries(t *testing.T) {
	c := newTestCollector()
	tbl := newTable(c)
	tbl.Hash["dead"] = nil
	tbl.Hash["alive"] = "x"

	c.traverseStrongHash(tbl)

	if _, ok := tbl.Hash["dead"]; ok {
		t.Fatal("nil-valued entry should have been deleted")
	}
	if _, ok := tbl.Hash["alive"]; !ok {
		t.Fatal("non-nil entry should survive traversal")
	}
}

func TestPropagateAllDrainsGray(t *testing.T) {
	c := newTestCollector()
	a := newTable(c)
	b := newTable(c)
	a.Hash["b"] = b

	c.reallyMark(a)
	c.propagateAll()

	if c.state.gray != nil {
		t.Fatal("gray list should be empty after propagateAll")
	}
	if !a.header().isBlack() || !b.header().isBlack() {
		t.Fatal("both reachable tables should end up black")
	}
}

func TestMarkRootsMarksRegistryMainThreadAndToBeFnz(t *testing.T) {
	c := newTestCollector()
	reg := newTable(c)
	main := &Thread{Header: Header{Tag: TagThread}, Stack: make([]Value, 4)}
	c.NewObject(main, 64)

	c.Registry = reg
	c.MainThread = main
	pending := &UserData{Header: Header{Tag: TagUserData, marked: c.state.currentWhite}}
	c.state.linkToBeFnz(pending)

	c.markRoots()

	if !reg.header().isGray() {
		t.Fatal("registry should be gray-linked by markRoots")
	}
	if !main.header().isGray() {
		t.Fatal("main thread should be gray-linked by markRoots")
	}
	if !pending.header().isBlack() {
		t.Fatal("an object waiting on tobefnz should be marked by markRoots")
	}
}

func TestObjSizeMonotoneInContentLength(t *testing.T) {
	short := &ShortString{Content: "a"}
	long := &ShortString{Content: "aaaaaaaaaa"}
	if objSize(long) <= objSize(short) {
		t.Fatal("objSize should grow with string content length")
	}
}
