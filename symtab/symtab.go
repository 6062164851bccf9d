// Package symtab implements the symbol and scope model (spec.md component
// C3): named entities, lexically-nested scopes, and the deterministic
// address assignment described in spec.md §3.
//
// Grounded on original_source/parser.py's self.global_symbols dict
// (confirming a name -> Symbol map per scope) and
// gmofishsauce-y4/asm/sym.go's scope-aware symbol table; the teacher
// (skx-math-compiler) has no symbol table of its own to adapt since its
// RPN language has no identifiers.
package symtab

import (
	"fmt"

	"github.com/bear24rw/EECE6083/stack"
)

// TypeKind is the declared type of a Symbol.
type TypeKind string

const (
	Integer   TypeKind = "INTEGER"
	Float     TypeKind = "FLOAT"
	Bool      TypeKind = "BOOL"
	String    TypeKind = "STRING"
	Procedure TypeKind = "PROCEDURE"
)

// Direction is the parameter-passing direction of a Symbol, or "" when the
// Symbol isn't a parameter.
type Direction string

const (
	DirNone Direction = ""
	DirIn   Direction = "in"
	DirOut  Direction = "out"
)

// Symbol is a named entity: variable, array, parameter, or procedure.
type Symbol struct {
	Name     string
	Type     TypeKind
	Size     int // 1 for scalars, N for an array of length N
	Addr     int // slot offset: global region, or frame-relative
	IsGlobal bool
	IsParam  bool
	IsArray  bool
	Indirect bool // true for `out` parameters: accessed via M[M[FP+addr]]
	Direction Direction
	Used     bool
	Params   []*Symbol // ordered parameter list, procedures only
	Label    string    // emitted entry label, procedures only
}

// ParamSize is the frame slot count this symbol occupies as a parameter:
// always 1 — `out` parameters store a pointer rather than the value, and
// arrays are passed/received by base address, so no parameter ever spans
// more than one slot.
func (s *Symbol) ParamSize() int {
	return 1
}

// scope is one lexical level: an ordered-by-insertion map of names to
// Symbols. Local addresses are computed from a scope's contents (see
// localLocalsSize); localAddr is neither read nor written.
type scope struct {
	names      []string
	symbols    map[string]*Symbol
	localAddr  int
}

func newScope() *scope {
	return &scope{symbols: make(map[string]*Symbol)}
}

func (s *scope) insert(sym *Symbol) {
	s.names = append(s.names, sym.Name)
	s.symbols[sym.Name] = sym
}

// Table is the full scope stack: index 0 is the global scope, also kept
// directly reachable as `global` so it stays visible inside any procedure
// body regardless of nesting depth.
type Table struct {
	global *scope
	scopes *stack.Stack[*scope]
	// globalAddr is the global address-region cursor (spec.md §3:
	// "addr = global_addr_cursor ... then bumped by size").
	globalAddr int
}

// New returns a Table with only the global scope active, pre-populated
// with the runtime's built-in procedures (spec.md §4.3).
func New() *Table {
	t := &Table{
		global: newScope(),
		scopes: stack.New[*scope](),
	}
	t.scopes.Push(t.global)
	t.installBuiltins()
	return t
}

func (t *Table) installBuiltins() {
	builtins := []struct {
		name  string
		ptype TypeKind
	}{
		{"putinteger", Integer},
		{"putfloat", Float},
		{"putbool", Bool},
		{"putstring", String},
	}
	for _, b := range builtins {
		param := &Symbol{Name: "in", Type: b.ptype, Size: 1, IsParam: true, Direction: DirIn, Used: true}
		proc := &Symbol{
			Name:   b.name,
			Type:   Procedure,
			Params: []*Symbol{param},
			Label:  b.name,
		}
		t.global.insert(proc)
	}
}

// EnterScope pushes a fresh empty scope and resets its local address
// cursor to zero.
func (t *Table) EnterScope() {
	t.scopes.Push(newScope())
}

// ExitScope pops the innermost scope.
func (t *Table) ExitScope() error {
	_, err := t.scopes.Pop()
	return err
}

// Depth returns the number of active scopes (>= 1: the global scope is
// never popped).
func (t *Table) Depth() int {
	return t.scopes.Len()
}

func (t *Table) innermost() *scope {
	s, err := t.scopes.Top()
	if err != nil {
		// The global scope is pushed in New and never popped by a
		// correctly-paired Enter/Exit sequence.
		panic("symtab: scope stack unexpectedly empty")
	}
	return s
}

// AddSymbol assigns an address to sym and inserts it into either the
// global scope (isGlobal) or the innermost scope, per spec.md §3's
// deterministic address-assignment rule. It does not check for
// duplicates; callers should consult DeclaredInInnermost first to honor
// the "two symbols in the same scope never share a name" invariant.
func (t *Table) AddSymbol(sym *Symbol, isGlobal bool) {
	if isGlobal {
		sym.IsGlobal = true
		sym.Addr = t.globalAddr
		t.globalAddr += sym.Size
		t.global.insert(sym)
		return
	}

	target := t.innermost()
	// Locals occupy FP+0, FP+1, ... upward, the region IncSP(localSize)
	// reserves on procedure entry; they no longer share a counter with
	// parameters, which AddParams addresses separately, below FP.
	sym.Addr = t.localLocalsSize(target)
	target.insert(sym)
}

// AddParams inserts a procedure's parameter list into the innermost scope
// in declaration order, assigning each a negative frame-relative address.
//
// spec.md §4.4's calling convention has the caller push arguments left to
// right, then a return-address label, then the old FP, then set FP := SP.
// Under PushStack's write-then-increment discipline that leaves the old
// FP at FP-1 and the return address at FP-2 (see ReturnToCaller), with
// the arguments sitting just below those in reverse push order: the last
// parameter lands at FP-3, the one before it at FP-4, and so on, so the
// first parameter ends up furthest from FP. That is why the address
// can't be assigned one parameter at a time as each is parsed (unlike
// AddSymbol for locals): it depends on the total parameter count, which
// isn't known until the whole list has been parsed.
func (t *Table) AddParams(params []*Symbol) {
	target := t.innermost()
	n := len(params)
	for i, sym := range params {
		sym.IsParam = true
		sym.Addr = -(n - i + 2)
		target.insert(sym)
	}
}

// AddToScope inserts sym directly into whichever scope is innermost right
// now, without touching Addr/Size. Procedures need this twice (spec.md
// §3: "inserted BOTH into its parent scope AND into its own body scope,
// to permit direct recursion"): once before EnterScope is called for the
// body (landing in the procedure's parent scope, global or enclosing),
// and once right after (landing in the fresh body scope).
func (t *Table) AddToScope(sym *Symbol) {
	t.innermost().insert(sym)
}

// localParamsSize computes local_params_size over scope's current
// contents, procedures excluded: the sum of ParamSize() for symbols
// flagged IsParam.
func (t *Table) localParamsSize(s *scope) int {
	n := 0
	for _, name := range s.names {
		sym := s.symbols[name]
		if sym.Type == Procedure {
			continue
		}
		if sym.IsParam {
			n += sym.ParamSize()
		}
	}
	return n
}

// localLocalsSize computes local_locals_size over scope's current
// contents, procedures excluded: the sum of Size for non-parameter
// symbols.
func (t *Table) localLocalsSize(s *scope) int {
	n := 0
	for _, name := range s.names {
		sym := s.symbols[name]
		if sym.Type == Procedure {
			continue
		}
		if !sym.IsParam {
			n += sym.Size
		}
	}
	return n
}

// LocalFrameSize returns (params size, locals size) for the innermost
// scope, used by the parser once a procedure's declarations are parsed
// to size both the SP advance on entry and the epilogue.
func (t *Table) LocalFrameSize() (paramsSize, localsSize int) {
	s := t.innermost()
	return t.localParamsSize(s), t.localLocalsSize(s)
}

// GetSymbol looks up name, checking the innermost scope first, then the
// global scope, per spec.md §3.
func (t *Table) GetSymbol(name string) (*Symbol, error) {
	inner := t.innermost()
	if sym, ok := inner.symbols[name]; ok {
		return sym, nil
	}
	if inner != t.global {
		if sym, ok := t.global.symbols[name]; ok {
			return sym, nil
		}
	}
	return nil, fmt.Errorf("Tried to lookup unknown symbol: %s", name)
}

// CurSymbols returns the names visible in the innermost scope union the
// global scope. Duplicate-declaration checks use DeclaredInInnermost
// instead, since a local may shadow a global of the same name.
func (t *Table) CurSymbols() map[string]*Symbol {
	out := make(map[string]*Symbol)
	for name, sym := range t.global.symbols {
		out[name] = sym
	}
	inner := t.innermost()
	if inner != t.global {
		for name, sym := range inner.symbols {
			out[name] = sym
		}
	}
	return out
}

// DeclaredInInnermost reports whether name is already declared in the
// innermost scope specifically (ignoring the global scope when the
// innermost scope is itself non-global) -- the precise check for
// "duplicate declaration" (spec.md §3: two symbols in the *same* scope
// never share a name).
func (t *Table) DeclaredInInnermost(name string) bool {
	_, ok := t.innermost().symbols[name]
	return ok
}
