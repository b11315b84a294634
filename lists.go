package gc

// GCFlags is the control-flag bitset from spec.md section 6.
type GCFlags uint8

const (
	GCSTPUSR GCFlags = 1 << iota // stopped by user request
	GCSTPGC                      // stopped by the collector itself (inside a finalizer)
	GCSTPCLS                     // runtime is closing; no more finalizers
)

// state is the collector's singleton global state (spec.md section 3):
// current-white selector, phase, mode, every object list, and the
// generational sublists. It is embedded in Collector rather than exported
// directly — callers interact through Collector's public methods.
type state struct {
	currentWhite uint8
	phase        Phase
	mode         Mode
	flags        GCFlags

	// primary lists (threaded through Header.Next)
	allgc   Object
	finobj  Object
	tobefnz Object
	fixedgc Object

	// gray work-lists (threaded through Header.GCList)
	gray      Object
	grayagain Object
	weak      Object
	allweak   Object
	ephemeron Object

	// threads with open upvalues (threaded through Thread.TwupsNext)
	twups Object

	// generational sublists: survivors of the last minor cycle not yet
	// promoted to Old, split the same way allgc/finobj are.
	survival       Object
	finobjSurvival Object

	// sweep cursors: pointer to the Next field currently being swept, so
	// that unlinking mid-sweep (e.g. via checkFinalizer) can reposition
	// them safely.
	sweepgc  *Object
	sweepfin *Object
	sweeptbf *Object

	firstOld1 Object // generational sweep accelerator (spec.md section 9, optional)
}

func newState() *state {
	s := &state{currentWhite: bitWhite0, phase: PhasePause, mode: ModeIncremental}
	return s
}

func (s *state) stopped() bool { return s.flags != 0 }

func (s *state) otherWhite() uint8 { return otherWhite(s.currentWhite) }

func (s *state) flipWhite() { s.currentWhite = s.otherWhite() }

// --- primary list linkage ---

func linkInto(head *Object, obj Object) {
	obj.header().Next = *head
	*head = obj
}

func (s *state) linkAllGC(obj Object) { linkInto(&s.allgc, obj) }

func (s *state) linkFinObj(obj Object) { linkInto(&s.finobj, obj) }

func (s *state) linkToBeFnz(obj Object) { linkInto(&s.tobefnz, obj) }

func (s *state) linkFixed(obj Object) { linkInto(&s.fixedgc, obj) }

// unlinkFrom removes obj from the list rooted at *head, returning whether
// it was found. Used sparingly (sweep advances its own cursor instead);
// this is for out-of-band removal such as checkFinalizer moving an object
// from allgc to finobj mid-sweep.
func unlinkFrom(head *Object, obj Object) bool {
	if *head == obj {
		*head = obj.header().Next
		obj.header().Next = nil
		return true
	}
	cur := *head
	for cur != nil {
		h := cur.header()
		if h.Next == obj {
			h.Next = obj.header().Next
			obj.header().Next = nil
			return true
		}
		cur = h.Next
	}
	return false
}

// --- gray list linkage ---

// linkGray makes obj gray and threads it onto *head via GCList. Per
// spec.md section 4.2, a gray object must never be linked onto two gray
// lists simultaneously; callers are responsible for only calling this
// once per propagate cycle per object (reallymark only gray-links objects
// that were previously white or already off every list).
func linkGray(head *Object, obj Object) {
	h := obj.header()
	h.makeGray()
	h.GCList = *head
	*head = obj
}

func (s *state) linkGray(obj Object)      { linkGray(&s.gray, obj) }
func (s *state) linkGrayAgain(obj Object) { linkGray(&s.grayagain, obj) }
func (s *state) linkWeak(obj Object)      { linkGray(&s.weak, obj) }
func (s *state) linkAllWeak(obj Object)   { linkGray(&s.allweak, obj) }
func (s *state) linkEphemeron(obj Object) { linkGray(&s.ephemeron, obj) }

// popGray pops and returns the head of *head, or nil if empty.
func popGray(head *Object) Object {
	obj := *head
	if obj == nil {
		return nil
	}
	*head = obj.header().GCList
	obj.header().GCList = nil
	return obj
}

// --- threads-with-upvalues list ---

func (s *state) linkTwups(t *Thread) {
	t.TwupsNext = s.twups
	s.twups = t
}

// unlinkTwups walks the twups list removing t. remarkUpvals does not call
// it: it detaches threads in place via detachTwups while walking the list.
func (s *state) unlinkTwups(t *Thread) bool {
	if s.twups == Object(t) {
		s.twups = t.TwupsNext
		t.TwupsNext = nil
		return true
	}
	cur := s.twups
	for cur != nil {
		th, ok := cur.(*Thread)
		if !ok {
			return false
		}
		if th.TwupsNext == Object(t) {
			th.TwupsNext = t.TwupsNext
			t.TwupsNext = nil
			return true
		}
		cur = th.TwupsNext
	}
	return false
}
