package gc

// Value is anything that can live in a table slot, upvalue, stack slot or
// constant pool entry: either a GC object (implementing Object) or a
// primitive the collector does not need to trace (bool, float64, string
// constants interned elsewhere, nil).
type Value = any

// asObject extracts the collectable object behind v, if any.
func asObject(v Value) (Object, bool) {
	o, ok := v.(Object)
	return o, ok
}

// ShortString is an interned, hash-consed string. The runtime's intern
// pool (external collaborator, see host.go's StringInterner) owns
// dedup; the collector only owns its lifetime.
type ShortString struct {
	Header
	Content string
	Hash    uint32
	Fixed   bool // reserved-symbol flag; the collector itself never reads it
}

func (s *ShortString) header() *Header { return &s.Header }

// LongString holds a payload too large to intern. Payload may be backed
// by host-allocated memory outside the Go heap; Dealloc, if non-nil, is
// invoked during sweep before the header itself is released.
type LongString struct {
	Header
	Content []byte
	Dealloc func([]byte)
}

func (s *LongString) header() *Header { return &s.Header }

// Table is a mixed array+hash associative structure. Mode caches the
// metatable's "__mode" string so the weak-table module doesn't have to
// re-read the metatable on every cycle.
type Table struct {
	Header
	Array     []Value
	Hash      map[Value]Value
	Metatable *Table
	Mode      string // "", "k", "v", or "kv"
}

func (t *Table) header() *Header { return &t.Header }

func (t *Table) isWeakKey() bool   { return containsByte(t.Mode, 'k') }
func (t *Table) isWeakValue() bool { return containsByte(t.Mode, 'v') }
func (t *Table) isAllWeak() bool   { return t.isWeakKey() && t.isWeakValue() }
func (t *Table) isStrong() bool    { return t.Mode == "" }

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// UpvalDesc describes, at the prototype level, where a nested closure
// should capture an upvalue from; it carries no collectable state of its
// own beyond the name string.
type UpvalDesc struct {
	Name    *ShortString
	InStack bool
	Index   int
}

// Prototype is the compiled, reusable body of a function: bytecode plus
// everything needed to create closures over it. Owned by whichever
// closures reference it; freed at sweep once unreferenced.
type Prototype struct {
	Header
	Source        *ShortString
	Constants     []Value
	Protos        []*Prototype
	Upvalues      []UpvalDesc
	LocalVarNames []*ShortString
	LineInfo      []int32 // debug info; released along with the prototype
}

func (p *Prototype) header() *Header { return &p.Header }

// LuaClosure is a closure over bytecode: a prototype plus its captured
// upvalues.
type LuaClosure struct {
	Header
	Proto   *Prototype
	Upvals  []*Upvalue
}

func (c *LuaClosure) header() *Header { return &c.Header }

// NativeFunction is a host-provided function pointer; the collector never
// calls it directly, only marks the upvalues closed over it.
type NativeFunction func(*Thread) (int, error)

// NativeClosure is a closure over a host function.
type NativeClosure struct {
	Header
	Fn     NativeFunction
	Upvals []*Upvalue
}

func (c *NativeClosure) header() *Header { return &c.Header }

// Upvalue is either open (aliasing a live slot on some thread's stack) or
// closed (owning its own value). Open upvalues belonging to the same
// thread are linked through Prev/Next so the thread can walk and close
// them on stack unwind.
type Upvalue struct {
	Header
	Open   bool
	Owner  *Thread // thread whose stack this upvalue currently points into, if Open
	Index  int     // slot index into Owner.Stack, if Open
	Closed Value   // owned value, valid when !Open

	Prev, Next *Upvalue // links in Owner.OpenUpvals
}

func (u *Upvalue) header() *Header { return &u.Header }

// Value reads the upvalue's current value regardless of open/closed state.
func (u *Upvalue) Value() Value {
	if u.Open {
		return u.Owner.Stack[u.Index]
	}
	return u.Closed
}

// Close detaches an open upvalue from its thread, copying the live slot
// into owned storage. Called by the interpreter on stack unwind, never by
// the collector directly (though GC code walks the result).
func (u *Upvalue) Close() {
	if !u.Open {
		return
	}
	u.Closed = u.Owner.Stack[u.Index]
	if u.Prev != nil {
		u.Prev.Next = u.Next
	} else {
		u.Owner.OpenUpvals = u.Next
	}
	if u.Next != nil {
		u.Next.Prev = u.Prev
	}
	u.Open = false
	u.Owner, u.Prev, u.Next = nil, nil, nil
}

// UserData is an opaque, host-owned byte payload plus a fixed number of
// GC-traced value slots and an optional metatable (which may declare a
// finalizer via "__gc").
type UserData struct {
	Header
	Data      []byte
	Values    []Value
	Metatable *Table
	Dealloc   func([]byte)
}

func (u *UserData) header() *Header { return &u.Header }

// CallFrame is a single activation record in a thread's call-info chain.
// The collector does not interpret its contents beyond what Thread
// exposes for stack walking.
type CallFrame struct {
	Closure  Object // *LuaClosure or *NativeClosure
	PC       int
	Previous *CallFrame
}

// ThreadStatus mirrors the coroutine-like states a Thread can be in; the
// collector does not schedule threads, only traces and sweeps them.
type ThreadStatus uint8

const (
	ThreadSuspended ThreadStatus = iota
	ThreadRunning
	ThreadNormal
	ThreadDead
)

// Thread is a coroutine-like execution context: a value stack, a call-info
// chain, and the open upvalues referencing its stack slots.
type Thread struct {
	Header
	Stack      []Value
	Top        int
	CallInfo   *CallFrame
	Status     ThreadStatus
	OpenUpvals *Upvalue // head of the intrusive open-upvalue list

	TwupsNext Object // link in the global thread-with-open-upvalues list
}

func (t *Thread) header() *Header { return &t.Header }

// LiveStack returns the portion of the stack the collector must trace:
// slots [0, Top).
func (t *Thread) LiveStack() []Value { return t.Stack[:t.Top] }
