package codegen

import (
	"strings"
	"testing"

	"github.com/bear24rw/EECE6083/instructions"
)

func TestSetNewRegMonotonic(t *testing.T) {
	g := New()

	a := g.SetNewReg("1 + 2")
	b := g.SetNewReg("3 * 4")

	if b <= a {
		t.Fatalf("registers must be strictly monotone: a=%d b=%d", a, b)
	}
	if got, want := g.Lines()[0], "    R[1] = 1 + 2;"; got != want {
		t.Errorf("line 0 = %q, want %q", got, want)
	}
}

func TestMoveMemToRegFrameRelative(t *testing.T) {
	g := New()
	reg := g.MoveMemToReg(3, -1)
	if got, want := g.Lines()[0], "    R[1] = M[FP + 3];"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if reg != 1 {
		t.Errorf("reg = %d, want 1", reg)
	}
}

func TestMoveMemToRegWithOffset(t *testing.T) {
	g := New()
	off := g.SetNewReg("0")
	g.MoveMemToReg(5, off)
	if got, want := g.Lines()[1], "    R[2] = M[FP + 5 + R[1]];"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPushPopStackDiscipline(t *testing.T) {
	g := New()
	reg := g.SetNewReg("42")
	g.PushStack(reg)
	g.PopStack()

	// spec.md §9: push writes M[SP] then increments SP; pop decrements SP
	// then reads M[SP] — SP always sits one past the topmost live slot.
	want := []string{
		"    R[1] = 42;",
		"    M[SP] = R[1];",
		"    SP++;",
		"    SP--;",
		"    R[2] = M[SP];",
	}
	for i, w := range want {
		if g.Lines()[i] != w {
			t.Errorf("line %d = %q, want %q", i, g.Lines()[i], w)
		}
	}
}

func TestLabelsMonotonicPerPrefix(t *testing.T) {
	g := New()
	a := g.NewLabel("else")
	b := g.NewLabel("else")
	c := g.NewLabel("endif")

	if a == b {
		t.Errorf("two calls with the same prefix must not collide: %q == %q", a, b)
	}
	if a != "else_1" || b != "else_2" {
		t.Errorf("got %q, %q, want else_1, else_2", a, b)
	}
	if c != "endif_1" {
		t.Errorf("separate prefixes must not share a counter: got %q, want endif_1", c)
	}
}

func TestPutLabelFlushLeft(t *testing.T) {
	g := New()
	g.PutLabel("main")
	if got, want := g.Lines()[0], "main:"; got != want {
		t.Errorf("got %q, want %q (labels must be flush left)", got, want)
	}
}

func TestLabelUniquenessAcrossTrace(t *testing.T) {
	g := New()
	l1 := g.NewLabel("loop")
	l2 := g.NewLabel("loop")
	g.PutLabel(l1)
	g.GotoLabel(l2)
	g.PutLabel(l2)

	seen := map[string]int{}
	for _, e := range g.Trace() {
		if e.Kind == instructions.Label {
			seen[e.Label]++
		}
	}
	for label, n := range seen {
		if n != 1 {
			t.Errorf("label %q defined %d times, want exactly 1", label, n)
		}
	}
}

func TestCommentsCanBeDisabled(t *testing.T) {
	g := New(WithComments(false))
	g.Comment("should not appear")
	if len(g.Lines()) != 0 {
		t.Errorf("expected no lines emitted when comments are disabled, got %v", g.Lines())
	}

	g2 := New()
	g2.Comment("hello %d", 1)
	if got, want := g2.Lines()[0], "    /* hello 1 */"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithIndentWidth(t *testing.T) {
	g := New(WithIndentWidth(2))
	g.SetNewReg("1")
	if got, want := g.Lines()[0], "  R[1] = 1;"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReturnToCallerEpilogue(t *testing.T) {
	g := New()
	g.ReturnToCaller(2, 3)

	joined := strings.Join(g.Lines(), "\n")
	for _, want := range []string{
		"M[FP - 2]",
		"M[FP - 1]",
		"SP = SP - 7", // localSize(3) + argSize(2) + 2
		"goto *(void *)R[",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("epilogue missing %q in:\n%s", want, joined)
		}
	}
}

func TestStoreStringLiteralNulTerminates(t *testing.T) {
	g := New()
	g.StoreStringLiteral(10, "hi")

	want := []string{
		"    M[FP + 10] = 104;",
		"    M[FP + 11] = 105;",
		"    M[FP + 12] = 0;",
	}
	for i, w := range want {
		if g.Lines()[i] != w {
			t.Errorf("line %d = %q, want %q", i, g.Lines()[i], w)
		}
	}
}

func TestRenderPrologueAndEpilogue(t *testing.T) {
	g := New()
	g.PutLabel("main")
	g.SetNewReg("1")

	out := g.Render("")
	if !strings.HasPrefix(out, "#include \"runtime.h\"\nint main(void) {\n    goto main;\n\n") {
		t.Errorf("unexpected prologue:\n%s", out)
	}
	if !strings.HasSuffix(out, "\nreturn 0;\n}\n") {
		t.Errorf("unexpected epilogue:\n%s", out)
	}
	if !strings.Contains(out, "main:\n") {
		t.Errorf("expected the main: label in output:\n%s", out)
	}
}

func TestSetFloatRegTypePunning(t *testing.T) {
	g := New()
	reg := g.SetFloatReg("3.140000")

	joined := strings.Join(g.Lines(), "\n")
	if !strings.Contains(joined, "tmp_float = 3.140000;") {
		t.Errorf("expected tmp_float assignment, got:\n%s", joined)
	}
	if !strings.Contains(joined, "memcpy(&R[1], &tmp_float, sizeof(R[1]));") {
		t.Errorf("expected memcpy into R[%d], got:\n%s", reg, joined)
	}
}
