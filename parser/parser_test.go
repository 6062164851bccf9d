package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bear24rw/EECE6083/codegen"
	"github.com/bear24rw/EECE6083/diag"
	"github.com/bear24rw/EECE6083/instructions"
	"github.com/bear24rw/EECE6083/scanner"
	"github.com/bear24rw/EECE6083/symtab"
)

// compile is the shared harness: scan+parse src and return the reporter
// (for diagnostics) and generator (for emitted lines), matching the
// single-pass architecture original_source/parser.py drives inline.
func compile(t *testing.T, src string) (*diag.Reporter, *codegen.Generator) {
	t.Helper()
	rep := diag.NewReporter()
	sc := scanner.New("t.src", src, rep)
	tab := symtab.New()
	gen := codegen.New()
	p := New(sc, rep, tab, gen)
	_ = p.Parse()
	return rep, gen
}

func TestMinimalProgram(t *testing.T) {
	rep, gen := compile(t, `
program foo is
begin
end program
`)
	assert.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())
	assert.Contains(t, gen.Lines(), "main:")
}

func TestAssignmentAndArithmetic(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	integer x;
	integer y;
begin
	x := 2 + 3;
	y := x * 4;
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())

	var sawMul bool
	for _, line := range gen.Lines() {
		if strings.Contains(line, "*") {
			sawMul = true
		}
	}
	assert.True(t, sawMul, "expected a multiply statement in: %v", gen.Lines())
}

func TestTypeMismatchIsReportedButParsingContinues(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	integer x;
	bool b;
begin
	b := true;
	x := 1 + b;
end program
`)
	require.True(t, rep.HasErrors())
	var sawError bool
	for _, d := range rep.Diagnostics() {
		if d.Kind == diag.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
	// Parsing kept emitting past the type error: the erroneous
	// "x := 1 + b" assignment still produced its store to x (frame slot 0).
	assert.Contains(t, gen.Lines(), "    M[FP + 0] = R[4];")
}

func TestUninitializedUseWarns(t *testing.T) {
	rep, _ := compile(t, `
program foo is
	integer x;
	integer y;
begin
	y := x + 1;
end program
`)
	assert.False(t, rep.HasErrors())
	var sawWarning bool
	for _, d := range rep.Diagnostics() {
		if d.Kind == diag.Warning && strings.Contains(d.Message, "uninitialized") {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning, "diagnostics: %v", rep.Diagnostics())
}

func TestIfElse(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	integer x;
	bool flag;
begin
	flag := true;
	if (flag) then
		x := 1;
	else
		x := 2;
	end if;
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())

	var sawIfGoto, sawElseLabel bool
	for _, line := range gen.Lines() {
		if strings.HasPrefix(line, "    if (") {
			sawIfGoto = true
		}
		if strings.HasPrefix(line, "else_") {
			sawElseLabel = true
		}
	}
	assert.True(t, sawIfGoto)
	assert.True(t, sawElseLabel)
}

func TestRecursiveProcedureCallsItself(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	procedure fact(integer n in, integer result out)
		integer tmp;
	begin
		if (n <= 1) then
			result := 1;
		else
			fact(n - 1, tmp);
			result := n * tmp;
		end if;
		return;
	end procedure;
	integer r;
begin
	fact(5, r);
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())

	var sawCallToSelf bool
	for _, line := range gen.Lines() {
		if strings.Contains(line, "goto fact_start_1") {
			sawCallToSelf = true
		}
	}
	assert.True(t, sawCallToSelf, "expected a recursive call to fact's own entry label: %v", gen.Lines())
}

func TestUndefinedIdentifierIsFatal(t *testing.T) {
	rep, _ := compile(t, `
program foo is
begin
	x := 1;
end program
`)
	assert.True(t, rep.HasErrors())
}

func TestDuplicateDeclarationIsFatal(t *testing.T) {
	rep, _ := compile(t, `
program foo is
	integer x;
	integer x;
begin
end program
`)
	assert.True(t, rep.HasErrors())
}

func TestArrayIndexing(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	integer arr[10];
begin
	arr[0] := 5;
	arr[1] := arr[0] + 1;
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())
	assert.NotEmpty(t, gen.Lines())
}

func TestProcedureCallArgumentCountMismatch(t *testing.T) {
	rep, _ := compile(t, `
program foo is
	procedure p(integer a in)
	begin
	end procedure;
begin
	p();
end program
`)
	assert.True(t, rep.HasErrors())
}

func TestGlobalVisibleInsideProcedure(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	global integer counter;
	procedure bump()
	begin
		counter := counter + 1;
	end procedure;
begin
	bump();
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())
	var sawGlobalStore bool
	for _, line := range gen.Lines() {
		if strings.HasPrefix(line, "    M[0]") {
			sawGlobalStore = true
		}
	}
	assert.True(t, sawGlobalStore, "expected a global store (absolute M[0]): %v", gen.Lines())
}

func TestStringLiteralArgument(t *testing.T) {
	rep, gen := compile(t, `
program foo is
begin
	putstring("hi");
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())
	var sawNulTerminator bool
	for _, line := range gen.Lines() {
		if strings.Contains(line, "= 0") {
			sawNulTerminator = true
		}
	}
	assert.True(t, sawNulTerminator)
}

func TestResyncRecoversAfterMissingSemicolon(t *testing.T) {
	rep, _ := compile(t, `
program foo is
	integer x
	integer y;
begin
	x := 1;
	y := 2;
end program
`)
	// The missing ';' after the first declaration is an error, but the
	// parser should resync and keep accepting the rest of the program
	// rather than cascading into spurious unrelated errors.
	require.True(t, rep.HasErrors())
	assert.LessOrEqual(t, len(rep.Diagnostics()), 3, "resync should bound the error cascade: %v", rep.Diagnostics())
}

// TestProcedureEntryAdvancesSPPastLocals checks that a procedure's body
// advances SP past its own locals on entry (spec.md §4.4), rather than
// pattern-matching for the emitted line in isolation: it locates the
// IncSP emission relative to the procedure's entry label and checks it
// carries the declared locals' total size.
func TestProcedureEntryAdvancesSPPastLocals(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	procedure p()
		integer a;
		integer b;
	begin
		a := 1;
		b := 2;
	end procedure;
begin
	p();
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())

	lines := gen.Lines()
	labelIdx := -1
	for i, line := range lines {
		if line == "p_start_1:" {
			labelIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, labelIdx, 0, "expected an entry label for p: %v", lines)
	require.Less(t, labelIdx+1, len(lines), "expected a line after the entry label: %v", lines)
	assert.Equal(t, "    SP = SP + 2;", lines[labelIdx+1], "expected SP advanced past p's two locals right after its entry label")
}

// TestCallArgumentAddressMatchesParameterAddress compiles a call to a
// two-parameter procedure and checks, end to end, that the frame address
// each parameter is read from (M[FP+addr], per symtab.AddParams) is
// exactly the address the caller's push sequence leaves that argument
// at -- rather than independently pattern-matching the push text and the
// parameter read text and hoping they agree.
func TestCallArgumentAddressMatchesParameterAddress(t *testing.T) {
	rep, gen := compile(t, `
program foo is
	procedure p(integer a in, integer b in)
		integer sum;
	begin
		sum := a + b;
	end procedure;
begin
	p(10, 20);
end program
`)
	require.False(t, rep.HasErrors(), "diagnostics: %v", rep.Diagnostics())

	lines := gen.Lines()
	// Two scalar `in` parameters: AddParams assigns a (index 0 of 2) the
	// address -(2-0+2) = -4, and b (index 1 of 2) the address
	// -(2-1+2) = -3; both must show up as frame-relative reads in p's body.
	assert.Contains(t, strings.Join(lines, "\n"), "M[FP + -4]", "parameter a should be read from FP-4: %v", lines)
	assert.Contains(t, strings.Join(lines, "\n"), "M[FP + -3]", "parameter b should be read from FP-3: %v", lines)

	// Independently trace the call site's push sequence: two argument
	// pushes, then the return-address push, then the FP push, all
	// write-then-increment (each store to M[SP] is immediately followed
	// by its own "SP++" in the trace).
	trace := gen.Trace()
	pushCount := 0
	for i, e := range trace {
		if e.Kind == instructions.PushStack && strings.HasPrefix(e.Text, "M[SP] =") {
			pushCount++
			require.Less(t, i+1, len(trace), "push should be followed by an SP++ in the trace")
			assert.Equal(t, "SP++", trace[i+1].Text, "push at trace index %d must increment SP immediately after storing", i)
		}
	}
	// a, b, the return-address label, and the old FP: 4 write-then-
	// increment pushes for this one call.
	assert.Equal(t, 4, pushCount, "expected 4 pushes (2 args + return address + old FP) for this call")
}
