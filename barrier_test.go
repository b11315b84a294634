package gc

import "testing"

func TestBarrierNoopUnlessParentBlackChildWhite(t *testing.T) {
	c := newTestCollector()
	c.state.phase = PhasePropagate
	parent := newTable(c)
	child := newTable(c)

	// parent not yet black: no-op.
	c.Barrier(parent, child)
	if child.header().isBlack() {
		t.Fatal("barrier should not fire while parent is not black")
	}

	parent.header().makeBlack()
	child.header().makeWhite(c.state.currentWhite)
	c.Barrier(parent, child)
	if !child.header().isGray() {
		t.Fatal("forward barrier should mark (gray-link) a white table child of a black parent")
	}
}

func TestBarrierPromotesChildToOld0UnderGenerational(t *testing.T) {
	c := newTestCollector(WithMode(ModeGenerationalMinor))
	c.state.phase = PhasePropagate
	parent := newTable(c)
	parent.header().makeBlack()
	parent.header().setAge(AgeOld)
	child := newTable(c)
	child.header().makeWhite(c.state.currentWhite)

	c.Barrier(parent, child)

	if child.header().age() != AgeOld0 {
		t.Fatalf("expected child age Old0, got %v", child.header().age())
	}
}

func TestBarrierDuringSweepRecolorsParentInIncrementalMode(t *testing.T) {
	c := newTestCollector(WithMode(ModeIncremental))
	c.state.phase = PhaseSweepAllGC
	parent := newTable(c)
	parent.header().makeBlack()
	child := newTable(c)
	child.header().makeWhite(c.state.currentWhite)

	c.Barrier(parent, child)

	if !parent.header().isWhiteShade(c.state.currentWhite) {
		t.Fatal("barrier fired during sweep should recolor the parent to current white")
	}
}

func TestBarrierBackLinksParentIntoGrayAgain(t *testing.T) {
	c := newTestCollector()
	parent := newTable(c)
	parent.header().makeBlack()

	c.BarrierBack(parent)

	if !parent.header().isGray() {
		t.Fatal("expected parent recolored gray")
	}
	if c.state.grayagain != Object(parent) {
		t.Fatal("expected parent linked onto grayagain")
	}
}

func TestBarrierBackSetsTouched1ForOldParent(t *testing.T) {
	c := newTestCollector()
	parent := newTable(c)
	parent.header().makeBlack()
	parent.header().setAge(AgeOld)

	c.BarrierBack(parent)

	if parent.header().age() != AgeTouched1 {
		t.Fatalf("expected age Touched1, got %v", parent.header().age())
	}
}

func TestBarrierBackTouched2JustRecolors(t *testing.T) {
	c := newTestCollector()
	parent := newTable(c)
	parent.header().makeBlack()
	parent.header().setAge(AgeTouched2)
	grayagainBefore := c.state.grayagain

	c.BarrierBack(parent)

	if !parent.header().isGray() {
		t.Fatal("expected parent recolored gray")
	}
	if c.state.grayagain != grayagainBefore {
		t.Fatal("a Touched2 parent is already on grayagain; BarrierBack must not re-link it")
	}
}

func TestBarrierBackNoopOnNonBlackParent(t *testing.T) {
	c := newTestCollector()
	parent := newTable(c)
	// parent defaults to white, never made black.
	c.BarrierBack(parent)
	if c.state.grayagain != nil {
		t.Fatal("BarrierBack must be a no-op for a non-black parent")
	}
}
