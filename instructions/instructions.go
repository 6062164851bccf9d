// Package instructions tags each line the code generator buffers with the
// primitive that produced it.
//
// The generator itself still emits plain C-statement text (spec.md §9
// allows but does not require a separate structured IR); this package is
// the lightweight trace vocabulary laid alongside that text so the
// testable properties of spec.md §8 (label uniqueness, monotone
// registers, stack discipline) can be checked mechanically against a
// Generator's Trace() instead of pattern-matching generated C.
package instructions

// Kind identifies which code-generator primitive produced a buffered
// line.
type Kind byte

const (
	// NewReg tags a "R[i] = expr;" emission from SetNewReg.
	NewReg Kind = 'r'

	// MoveMemToReg tags a frame/indirect load into a register.
	MoveMemToReg Kind = 'l'

	// MoveRegToMem tags a frame-relative store.
	MoveRegToMem Kind = 's'

	// MoveRegToMemGlobal tags an absolute-address store.
	MoveRegToMemGlobal Kind = 'g'

	// MoveRegToMemIndirect tags a pointer store (out-parameter write).
	MoveRegToMemIndirect Kind = 'i'

	// PushStack tags a runtime-stack push.
	PushStack Kind = 'P'

	// PopStack tags a runtime-stack pop.
	PopStack Kind = 'O'

	// StackPointer tags SP/FP arithmetic (DecSP/IncSP/SetFP/SetSPToFP/SetFPToSP).
	StackPointer Kind = 'f'

	// Label tags a label definition (PutLabel).
	Label Kind = 'L'

	// Goto tags an unconditional or conditional jump.
	Goto Kind = 'j'

	// Return tags the procedure epilogue emitted by ReturnToCaller.
	Return Kind = 'R'

	// Comment tags a `/* ... */` annotation line.
	Comment Kind = '#'

	// Raw tags any other append-only emission. No Generator primitive
	// emits it; `if (...)` guards from GotoIfZero are tagged Goto.
	Raw Kind = '.'
)

// Entry is one traced emission: the primitive kind that produced it, the
// literal text appended to the buffer, and (when relevant) the register
// or label identifier involved.
type Entry struct {
	Kind Kind
	Text string
	// Reg is the register index involved, or -1 if none.
	Reg int
	// Label is the label name involved, or "" if none.
	Label string
}
