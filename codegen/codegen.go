// Package codegen implements the code generator (spec.md component C4):
// an abstract register/memory/stack machine whose operations are
// materialized as C statements against a flat memory array M[], a
// register file R[], a frame pointer FP, and a stack pointer SP.
//
// Grounded on skx-math-compiler/compiler/generator.go (one emission
// method per primitive, building strings with placeholder substitution,
// per-prefix label counters) generalized to the primitive vocabulary
// original_source/gen.py actually exposes (set_new_reg, move_mem_to_reg,
// move_reg_to_mem[_indirect], push_stack/pop_stack, new_label/put_label/
// goto_label, write_file). No primitive ever inspects or rewrites a prior
// emission — generation is strictly append-only, matching spec.md §4.4.
package codegen

import (
	"fmt"
	"os"
	"strings"

	"github.com/bear24rw/EECE6083/instructions"
)

// Generator buffers emitted C-statement lines plus a parallel trace, and
// owns the monotone register/label counters.
type Generator struct {
	lines []string
	trace []instructions.Entry

	currentReg int
	labelCount map[string]int

	indentWidth  int
	emitComments bool
}

// Option configures a Generator at construction time.
type Option func(*Generator)

// WithIndentWidth overrides the default four-space statement indent.
func WithIndentWidth(n int) Option {
	return func(g *Generator) { g.indentWidth = n }
}

// WithComments toggles whether Comment() emits anything at all, letting a
// caller silence inline `/* ... */` annotations (config.Codegen.EmitComments).
func WithComments(on bool) Option {
	return func(g *Generator) { g.emitComments = on }
}

// New returns an empty Generator. currentReg starts at 1 (register 0 is
// never assigned, mirroring original_source/gen.py's Gen.__init__).
func New(opts ...Option) *Generator {
	g := &Generator{
		labelCount:   make(map[string]int),
		currentReg:   1,
		indentWidth:  4,
		emitComments: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) indent() string {
	return strings.Repeat(" ", g.indentWidth)
}

// emit appends one indented, semicolon-terminated statement line, tracing
// it under kind.
func (g *Generator) emit(kind instructions.Kind, reg int, label, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	g.lines = append(g.lines, g.indent()+text+";")
	g.trace = append(g.trace, instructions.Entry{Kind: kind, Text: text, Reg: reg, Label: label})
}

// emitRaw appends a line with no trailing semicolon added (labels, and
// raw fully-formed statements that already carry their own punctuation).
func (g *Generator) emitRaw(kind instructions.Kind, reg int, label, indent, text string) {
	g.lines = append(g.lines, indent+text)
	g.trace = append(g.trace, instructions.Entry{Kind: kind, Text: text, Reg: reg, Label: label})
}

// NewReg reserves and returns a fresh register index without emitting
// anything. Registers are never reused within one compilation.
func (g *Generator) NewReg() int {
	i := g.currentReg
	g.currentReg++
	return i
}

// SetNewReg emits "R[i] = expr;" and returns the freshly reserved i.
func (g *Generator) SetNewReg(expr string) int {
	i := g.NewReg()
	g.emit(instructions.NewReg, i, "", "R[%d] = %s", i, expr)
	return i
}

// SetFloatReg emits the typed-punning sequence spec.md §4.5 requires for
// float literals: write the decimal value into tmp_float, then memcpy its
// bit pattern into R[i], preserving the IEEE-754 representation instead
// of truncating through an int conversion.
func (g *Generator) SetFloatReg(literal string) int {
	i := g.NewReg()
	g.emit(instructions.NewReg, i, "", "tmp_float = %s", literal)
	g.emit(instructions.NewReg, i, "", "memcpy(&R[%d], &tmp_float, sizeof(R[%d]))", i, i)
	return i
}

// MoveMemToReg loads M[FP+mem] (or, when offsetReg >= 0, M[FP+mem+R[offsetReg]])
// into a fresh register and returns it.
func (g *Generator) MoveMemToReg(mem int, offsetReg int) int {
	i := g.NewReg()
	if offsetReg >= 0 {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[FP + %d + R[%d]]", i, mem, offsetReg)
	} else {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[FP + %d]", i, mem)
	}
	return i
}

// MoveMemToRegGlobal loads M[mem] (absolute, or M[mem+R[offsetReg]]) into a
// fresh register and returns it.
func (g *Generator) MoveMemToRegGlobal(mem int, offsetReg int) int {
	i := g.NewReg()
	if offsetReg >= 0 {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[%d + R[%d]]", i, mem, offsetReg)
	} else {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[%d]", i, mem)
	}
	return i
}

// MoveMemIndirectToReg loads M[M[FP+mem]] (optionally offset by
// R[offsetReg] before the outer dereference) into a fresh register: the
// read path for an `out` parameter, which stores an address rather than a
// value.
func (g *Generator) MoveMemIndirectToReg(mem int, offsetReg int) int {
	i := g.NewReg()
	if offsetReg >= 0 {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[M[FP + %d] + R[%d]]", i, mem, offsetReg)
	} else {
		g.emit(instructions.MoveMemToReg, i, "", "R[%d] = M[M[FP + %d]]", i, mem)
	}
	return i
}

// MoveRegToMem stores R[reg] to M[FP+mem] (or M[FP+mem+R[offsetReg]]).
func (g *Generator) MoveRegToMem(reg, mem, offsetReg int) {
	if offsetReg >= 0 {
		g.emit(instructions.MoveRegToMem, reg, "", "M[FP + %d + R[%d]] = R[%d]", mem, offsetReg, reg)
	} else {
		g.emit(instructions.MoveRegToMem, reg, "", "M[FP + %d] = R[%d]", mem, reg)
	}
}

// MoveRegToMemGlobal stores R[reg] to the absolute address M[mem] (or
// M[mem+R[offsetReg]]).
func (g *Generator) MoveRegToMemGlobal(reg, mem, offsetReg int) {
	if offsetReg >= 0 {
		g.emit(instructions.MoveRegToMemGlobal, reg, "", "M[%d + R[%d]] = R[%d]", mem, offsetReg, reg)
	} else {
		g.emit(instructions.MoveRegToMemGlobal, reg, "", "M[%d] = R[%d]", mem, reg)
	}
}

// MoveRegToMemIndirect stores R[reg] through a pointer already resident in
// R[addrReg]: M[R[addrReg]] = R[reg]. Used for writes through `out`
// parameters.
func (g *Generator) MoveRegToMemIndirect(reg, addrReg int) {
	g.emit(instructions.MoveRegToMemIndirect, reg, "", "M[R[%d]] = R[%d]", addrReg, reg)
}

// PushStack pushes R[reg] onto the runtime stack: store at the current
// SP, then increment, so SP always points one past the topmost live
// element (spec.md §9 open question 2's resolution).
func (g *Generator) PushStack(reg int) {
	g.emit(instructions.PushStack, reg, "", "M[SP] = R[%d]", reg)
	g.emit(instructions.PushStack, reg, "", "SP++")
}

// PopStack decrements SP, then reads M[SP] into a fresh register and
// returns it.
func (g *Generator) PopStack() int {
	g.emit(instructions.PopStack, -1, "", "SP--")
	i := g.NewReg()
	g.emit(instructions.PopStack, i, "", "R[%d] = M[SP]", i)
	return i
}

// DecSP subtracts n from SP.
func (g *Generator) DecSP(n int) {
	g.emit(instructions.StackPointer, -1, "", "SP = SP - %d", n)
}

// IncSP adds n to SP.
func (g *Generator) IncSP(n int) {
	g.emit(instructions.StackPointer, -1, "", "SP = SP + %d", n)
}

// SetFP sets FP to the absolute address a.
func (g *Generator) SetFP(a int) {
	g.emit(instructions.StackPointer, -1, "", "FP = %d", a)
}

// SetSPToFP sets SP := FP.
func (g *Generator) SetSPToFP() {
	g.emit(instructions.StackPointer, -1, "", "SP = FP")
}

// SetFPToSP sets FP := SP, the calling convention's frame-establishing
// step performed by the caller right before the goto to the callee.
func (g *Generator) SetFPToSP() {
	g.emit(instructions.StackPointer, -1, "", "FP = SP")
}

// NewLabel returns a fresh "<prefix>_<n>" name with a monotone per-prefix
// counter; it does not place the label.
func (g *Generator) NewLabel(prefix string) string {
	n := g.labelCount[prefix] + 1
	g.labelCount[prefix] = n
	return fmt.Sprintf("%s_%d", prefix, n)
}

// PutLabel places a label definition, flush left (no indent), terminated
// with ':' rather than ';'.
func (g *Generator) PutLabel(name string) {
	g.emitRaw(instructions.Label, -1, name, "", name+":")
}

// GotoLabel emits an unconditional jump.
func (g *Generator) GotoLabel(name string) {
	g.emit(instructions.Goto, -1, name, "goto %s", name)
}

// GotoIfZero emits a conditional jump: "if (R[reg] == 0) goto label;".
func (g *Generator) GotoIfZero(reg int, label string) {
	g.emit(instructions.Goto, reg, label, "if (R[%d] == 0) goto %s", reg, label)
}

// PushReturnAddress pushes the address of label, taken with GNU C's
// label-as-value extension (`&&label`), as the freshly-minted return
// address the calling convention's call sequence requires. This, along
// with ReturnToCaller's matching indirect goto, is why the external `gcc`
// invocation in spec.md §6 carries -Wno-int-to-pointer-cast and
// -Wno-pointer-to-int-cast: a label address is round-tripped through the
// int-typed M[]/R[] arrays.
func (g *Generator) PushReturnAddress(label string) {
	g.emit(instructions.PushStack, -1, label, "M[SP] = (long)&&%s", label)
	g.emit(instructions.PushStack, -1, label, "SP++")
}

// PushFP pushes the current value of FP onto the runtime stack, the second
// step of the calling convention's call sequence (after the return-address
// push, before FP is overwritten with SP).
func (g *Generator) PushFP() {
	g.emit(instructions.PushStack, -1, "", "M[SP] = FP")
	g.emit(instructions.PushStack, -1, "", "SP++")
}

// BlankLine appends an empty line with no trace entry, purely cosmetic:
// spec.md §4.5 calls for a blank line separating procedures in the output.
func (g *Generator) BlankLine() {
	g.lines = append(g.lines, "")
}

// ReturnToCaller emits the procedure epilogue: fetch the return address
// from M[FP-2], restore the old FP from M[FP-1], unwind SP past locals,
// arguments, and the two saved-context words, then jump to the return
// address via an indirect goto.
//
// FP-2 and FP-1 hold the return address and old FP because the call
// sequence pushes, in order, the arguments, then the return address,
// then the old FP, then sets FP := SP: under PushStack's write-then-
// increment discipline the old FP (the last thing pushed) lands at
// FP-1 and the return address, pushed just before it, at FP-2. The
// arguments pushed earlier sit below those, at FP-3 and down — see
// symtab.AddParams.
func (g *Generator) ReturnToCaller(argSize, localSize int) {
	retReg := g.NewReg()
	g.emit(instructions.Return, retReg, "", "R[%d] = M[FP - 2]", retReg)
	fpReg := g.NewReg()
	g.emit(instructions.Return, fpReg, "", "R[%d] = M[FP - 1]", fpReg)
	g.emit(instructions.Return, -1, "", "SP = SP - %d", localSize+argSize+2)
	g.emit(instructions.Return, -1, "", "FP = R[%d]", fpReg)
	g.emit(instructions.Return, retReg, "", "goto *(void *)R[%d]", retReg)
}

// Comment emits a `/* ... */` annotation line, unless comments have been
// disabled (config.Codegen.EmitComments == false).
func (g *Generator) Comment(format string, args ...any) {
	if !g.emitComments {
		return
	}
	text := fmt.Sprintf(format, args...)
	g.lines = append(g.lines, g.indent()+"/* "+text+" */")
	g.trace = append(g.trace, instructions.Entry{Kind: instructions.Comment, Reg: -1, Text: text})
}

// StoreStringLiteral initializes the anonymous array frame slot at
// FP+addr with the character codes of s, including a trailing NUL, per
// spec.md §3's rule that string-literal expressions implicitly create an
// anonymous array Symbol on the current activation frame.
func (g *Generator) StoreStringLiteral(addr int, s string) {
	for i, ch := range []byte(s) {
		g.emit(instructions.MoveRegToMem, -1, "", "M[FP + %d] = %d", addr+i, ch)
	}
	g.emit(instructions.MoveRegToMem, -1, "", "M[FP + %d] = 0", addr+len(s))
}

// Lines returns the buffered statement lines in emission order.
func (g *Generator) Lines() []string {
	return g.lines
}

// Trace returns the parallel primitive-tagged trace, for checking the
// testable properties of spec.md §8 (label uniqueness, monotone
// registers, stack discipline) without pattern-matching C text.
func (g *Generator) Trace() []instructions.Entry {
	return g.trace
}

// CurrentReg returns the next register index that will be handed out.
func (g *Generator) CurrentReg() int {
	return g.currentReg
}

// WriteFile serializes the fixed prologue, the verbatim contents of the
// runtime's inline assembly-substitute (runtimeInlinePath; skipped if
// empty or unreadable, since runtime_inline.c is an external collaborator
// per spec.md §1), the buffered lines, and the fixed epilogue, to path.
func (g *Generator) WriteFile(path, runtimeInlinePath string) error {
	var b strings.Builder

	b.WriteString("#include \"runtime.h\"\n")
	b.WriteString("int main(void) {\n")
	b.WriteString("    goto main;\n\n")

	if runtimeInlinePath != "" {
		if contents, err := os.ReadFile(runtimeInlinePath); err == nil {
			b.Write(contents)
			b.WriteString("\n")
		}
	}

	for _, line := range g.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\nreturn 0;\n}\n")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Render returns what WriteFile would write, without touching disk —
// used by tests.
func (g *Generator) Render(runtimeInlinePath string) string {
	var b strings.Builder

	b.WriteString("#include \"runtime.h\"\n")
	b.WriteString("int main(void) {\n")
	b.WriteString("    goto main;\n\n")

	if runtimeInlinePath != "" {
		if contents, err := os.ReadFile(runtimeInlinePath); err == nil {
			b.Write(contents)
			b.WriteString("\n")
		}
	}

	for _, line := range g.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\nreturn 0;\n}\n")
	return b.String()
}
